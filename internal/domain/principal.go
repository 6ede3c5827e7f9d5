package domain

type PrincipalKind string

const (
	KindCompany  PrincipalKind = "company"
	KindCustomer PrincipalKind = "customer"
)

// Principal is the authenticated caller: either a Company or a Customer.
type Principal struct {
	Kind  PrincipalKind `json:"kind"`
	Email string        `json:"email"`
}

func (p Principal) IsCompany() bool { return p.Kind == KindCompany }

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
