package catalog

import (
	"context"
	"time"
)

// Status is the review state of a catalog entry. Transitions only go
// pending -> published, via an explicit approval.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
)

// Role determines what an actor may do. Editors and admins hold elevated
// privilege: they self-approve on creation and may mutate any product.
type Role string

const (
	RoleProvider Role = "provider"
	RoleEditor   Role = "editor"
	RoleAdmin    Role = "admin"
)

// Actor is the authenticated principal performing a mutation.
type Actor struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

func (a Actor) Elevated() bool {
	return a.Role == RoleEditor || a.Role == RoleAdmin
}

// NetWeightUnits are the accepted units of measure.
var NetWeightUnits = []string{"g", "kg", "ml", "l", "oz", "lb"}

func validNetWeightUnit(unit string) bool {
	for _, u := range NetWeightUnits {
		if u == unit {
			return true
		}
	}
	return false
}

// Product is the system-of-record entity. Actor references are stored as
// bare user ids; views are assembled by explicit two-step reads.
type Product struct {
	ID            string     `json:"id"`
	GTIN          string     `json:"gtin"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Brand         string     `json:"brand"`
	Manufacturer  string     `json:"manufacturer"`
	NetWeight     float64    `json:"net_weight"`
	NetWeightUnit string     `json:"net_weight_unit"`
	Status        Status     `json:"status"`
	CreatedBy     string     `json:"created_by"`
	ApprovedBy    string     `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Snapshot flattens the product into a diffable map. Absent
// approver fields are omitted so that approval surfaces them as new
// fields in the audit diff.
func (p *Product) Snapshot() map[string]any {
	m := map[string]any{
		"id":            p.ID,
		"gtin":          p.GTIN,
		"name":          p.Name,
		"description":   p.Description,
		"brand":         p.Brand,
		"manufacturer":  p.Manufacturer,
		"netWeight":     p.NetWeight,
		"netWeightUnit": p.NetWeightUnit,
		"status":        string(p.Status),
		"createdBy":     p.CreatedBy,
		"createdAt":     p.CreatedAt,
		"updatedAt":     p.UpdatedAt,
	}
	if p.ApprovedBy != "" {
		m["approvedBy"] = p.ApprovedBy
	}
	if p.ApprovedAt != nil {
		m["approvedAt"] = *p.ApprovedAt
	}
	return m
}

// User is a catalog account. Password hashes never leave the store layer
// except for login verification.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListFilter narrows product listings. Zero values match everything.
type ListFilter struct {
	Status    Status
	CreatedBy string
}

// ProductStore is the persistence behind the lifecycle controller.
// Identity-code uniqueness is enforced here, not by application locking:
// Insert returns ErrDuplicateGTIN when the code is already taken.
type ProductStore interface {
	Insert(ctx context.Context, p *Product) error
	GetByGTIN(ctx context.Context, gtin string) (*Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]*Product, error)
}

// UserStore resolves actor references when assembling views and backs
// authentication.
type UserStore interface {
	Get(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Insert(ctx context.Context, u *User) error
	List(ctx context.Context) ([]*User, error)
}

// EventPublisher emits one best-effort notification per accepted mutation.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}
