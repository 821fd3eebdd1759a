package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
)

var (
	ErrFileTooLarge    = errors.New("storage: файл превышает допустимый размер")
	ErrUnsupportedType = errors.New("storage: неподдерживаемый тип файла")
)

// sniffLen - сколько байт нужно filetype для определения типа.
const sniffLen = 512

// StoredFile описывает сохранённый результат работы.
type StoredFile struct {
	Path     string
	Size     int64
	MimeType string
}

// DeliverableStorage хранит файлы результатов работ на диске, по каталогу на заказ.
type DeliverableStorage struct {
	rootPath       string
	maxUploadBytes int64
}

// NewDeliverableStorage создаёт файловое хранилище.
func NewDeliverableStorage(rootPath string, maxUploadMB int64) (*DeliverableStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}

	return &DeliverableStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// MaxUploadBytes возвращает лимит размера файла.
func (s *DeliverableStorage) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// Save проверяет тип по сигнатуре и сохраняет файл. Возвращает путь относительно корня хранилища.
func (s *DeliverableStorage) Save(ctx context.Context, orderID uuid.UUID, originalName string, r io.Reader) (*StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	br := bufio.NewReaderSize(r, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("storage: ошибка чтения файла: %w", err)
	}
	mime, err := DetectType(head)
	if err != nil {
		return nil, err
	}

	safeName := sanitizeFilename(originalName)
	fileName := fmt.Sprintf("%d_%s", time.Now().UnixNano(), safeName)

	orderDir := filepath.Join(s.rootPath, orderID.String())
	if err := os.MkdirAll(orderDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог заказа: %w", err)
	}

	targetPath := filepath.Join(orderDir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	limited := io.LimitedReader{R: br, N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limited)
	if err != nil {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("storage: ошибка записи файла: %w", err)
	}
	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return nil, ErrFileTooLarge
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}
	if err := os.Rename(tempPath, targetPath); err != nil {
		return nil, fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return &StoredFile{
		Path:     filepath.Join(orderID.String(), fileName),
		Size:     written,
		MimeType: mime,
	}, nil
}

// Delete удаляет файл из хранилища. Отсутствующий файл ошибкой не считается.
func (s *DeliverableStorage) Delete(ctx context.Context, relativePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := filepath.Join(s.rootPath, filepath.Clean("/"+relativePath))
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}

// DetectType определяет MIME по сигнатуре. Принимаются изображения, документы, архивы,
// аудио и видео; исполняемые файлы и неизвестные форматы отклоняются.
func DetectType(head []byte) (string, error) {
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return "", ErrUnsupportedType
	}
	if _, blocked := blockedTypes[kind.Extension]; blocked {
		return "", ErrUnsupportedType
	}
	if filetype.IsImage(head) || filetype.IsDocument(head) || filetype.IsArchive(head) ||
		filetype.IsAudio(head) || filetype.IsVideo(head) {
		return kind.MIME.Value, nil
	}
	return "", ErrUnsupportedType
}

var blockedTypes = map[string]struct{}{
	matchers.TypeExe.Extension: {},
	matchers.TypeElf.Extension: {},
	matchers.TypeDcm.Extension: {},
}

// sanitizeFilename удаляет потенциально опасные символы.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.TrimSpace(name)
	if name == "" || name == "." {
		name = "deliverable"
	}
	return name
}
