package valueobject

// Clearance - уровень допуска вызывающего: client < freelancer < admin.
type Clearance int

const (
	ClearanceNone       Clearance = 0
	ClearanceClient     Clearance = 1
	ClearanceFreelancer Clearance = 2
	ClearanceAdmin      Clearance = 3
)

var roleClearance = map[string]Clearance{
	"client":     ClearanceClient,
	"freelancer": ClearanceFreelancer,
	"admin":      ClearanceAdmin,
}

// ClearanceFromRoles возвращает максимальный допуск среди ролей пользователя.
// Неизвестные роли игнорируются.
func ClearanceFromRoles(roles []string) Clearance {
	best := ClearanceNone
	for _, role := range roles {
		if c, ok := roleClearance[role]; ok && c > best {
			best = c
		}
	}
	return best
}

func (c Clearance) AtLeast(required Clearance) bool {
	return c >= required
}

func (c Clearance) IsAdmin() bool {
	return c >= ClearanceAdmin
}

func (c Clearance) String() string {
	switch c {
	case ClearanceClient:
		return "client"
	case ClearanceFreelancer:
		return "freelancer"
	case ClearanceAdmin:
		return "admin"
	}
	return "none"
}
