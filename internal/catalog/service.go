package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/example/product-catalog/internal/audit"
	"github.com/example/product-catalog/internal/events"
	"github.com/example/product-catalog/internal/gtin"
)

// Service is the product lifecycle controller. Every accepted mutation is
// persisted, then audited, then published; the audit and publish steps are
// best-effort and never fail the mutation.
type Service struct {
	products  ProductStore
	users     UserStore
	recorder  *audit.Recorder
	publisher EventPublisher
}

func NewService(products ProductStore, users UserStore, recorder *audit.Recorder, publisher EventPublisher) *Service {
	return &Service{
		products:  products,
		users:     users,
		recorder:  recorder,
		publisher: publisher,
	}
}

// CreateProduct carries the caller-settable fields of a new entry.
// Control fields (status, creator, approver) are derived, never accepted.
type CreateProduct struct {
	GTIN          string  `json:"gtin"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Brand         string  `json:"brand"`
	Manufacturer  string  `json:"manufacturer"`
	NetWeight     float64 `json:"netWeight"`
	NetWeightUnit string  `json:"netWeightUnit"`
}

// Patch carries optional replacements for the descriptive fields. Control
// fields are structurally absent and therefore can never be set through an
// update.
type Patch struct {
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	Brand         *string  `json:"brand"`
	Manufacturer  *string  `json:"manufacturer"`
	NetWeight     *float64 `json:"netWeight"`
	NetWeightUnit *string  `json:"netWeightUnit"`
}

// Create validates and persists a new product. Elevated actors
// self-approve: the product starts published with approver set; base
// actors start a pending entry awaiting review.
func (s *Service) Create(ctx context.Context, input CreateProduct, actor Actor) (*events.ProductMessage, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	now := time.Now()
	p := &Product{
		ID:            uuid.New().String(),
		GTIN:          gtin.Normalize(input.GTIN),
		Name:          input.Name,
		Description:   input.Description,
		Brand:         input.Brand,
		Manufacturer:  input.Manufacturer,
		NetWeight:     input.NetWeight,
		NetWeightUnit: input.NetWeightUnit,
		Status:        StatusPending,
		CreatedBy:     actor.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if actor.Elevated() {
		p.Status = StatusPublished
		p.ApprovedBy = actor.ID
		approvedAt := now
		p.ApprovedAt = &approvedAt
	}

	if err := s.products.Insert(ctx, p); err != nil {
		return nil, err
	}

	view, err := s.view(ctx, p)
	if err != nil {
		// Compensate the partial write; the entry is unusable without
		// resolvable actor references.
		if delErr := s.products.Delete(ctx, p.ID); delErr != nil {
			log.Printf("[Catalog] Rollback of %s failed: %v", p.GTIN, delErr)
		}
		return nil, err
	}

	s.recordAudit(ctx, audit.RecordParams{
		GTIN:      p.GTIN,
		ProductID: p.ID,
		Action:    audit.ActionCreated,
		ChangedBy: actor.ID,
		NewData:   p.Snapshot(),
	})

	if p.Status == StatusPublished {
		s.publish(ctx, events.TopicProductCreated, view)
	}
	return view, nil
}

// Update applies a patch. Base-privilege actors may only edit their own
// pending products; elevated actors may edit anything.
func (s *Service) Update(ctx context.Context, code string, patch Patch, actor Actor) (*events.ProductMessage, error) {
	p, err := s.products.GetByGTIN(ctx, gtin.Normalize(code))
	if err != nil {
		return nil, err
	}

	if !actor.Elevated() {
		if p.Status != StatusPending {
			return nil, fmt.Errorf("%w: only pending products can be edited", ErrPermissionDenied)
		}
		if p.CreatedBy != actor.ID {
			return nil, fmt.Errorf("%w: only the creator can edit this product", ErrPermissionDenied)
		}
	}

	before := p.Snapshot()
	applyPatch(p, patch)
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now()

	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, audit.RecordParams{
		GTIN:         p.GTIN,
		ProductID:    p.ID,
		Action:       audit.ActionUpdated,
		ChangedBy:    actor.ID,
		PreviousData: before,
		NewData:      p.Snapshot(),
	})

	view, err := s.view(ctx, p)
	if err != nil {
		return nil, err
	}
	if p.Status == StatusPublished {
		s.publish(ctx, events.TopicProductUpdated, events.Wrap(view))
	}
	return view, nil
}

// Approve moves a pending product to published. Requires elevated
// privilege; approving a non-pending product is a state conflict and
// produces no audit entry and no event.
func (s *Service) Approve(ctx context.Context, code string, actor Actor) (*events.ProductMessage, error) {
	if !actor.Elevated() {
		return nil, fmt.Errorf("%w: approval requires editor or admin role", ErrPermissionDenied)
	}

	p, err := s.products.GetByGTIN(ctx, gtin.Normalize(code))
	if err != nil {
		return nil, err
	}
	if p.Status != StatusPending {
		return nil, ErrNotPending
	}

	before := p.Snapshot()
	now := time.Now()
	p.Status = StatusPublished
	p.ApprovedBy = actor.ID
	p.ApprovedAt = &now
	p.UpdatedAt = now

	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, audit.RecordParams{
		GTIN:         p.GTIN,
		ProductID:    p.ID,
		Action:       audit.ActionApproved,
		ChangedBy:    actor.ID,
		PreviousData: before,
		NewData:      p.Snapshot(),
	})

	view, err := s.view(ctx, p)
	if err != nil {
		return nil, err
	}
	view.Action = "approved"
	s.publish(ctx, events.TopicProductApproved, view)
	return view, nil
}

// Delete removes a product. The audit entry is written before removal so
// the final snapshot survives; the deleted event is emitted regardless of
// prior status.
func (s *Service) Delete(ctx context.Context, code string, actor Actor) error {
	p, err := s.products.GetByGTIN(ctx, gtin.Normalize(code))
	if err != nil {
		return err
	}

	s.recordAudit(ctx, audit.RecordParams{
		GTIN:         p.GTIN,
		ProductID:    p.ID,
		Action:       audit.ActionDeleted,
		ChangedBy:    actor.ID,
		PreviousData: p.Snapshot(),
	})

	if err := s.products.Delete(ctx, p.ID); err != nil {
		return err
	}

	view, err := s.view(ctx, p)
	if err != nil {
		// The record is already gone; publish a thin snapshot so the
		// index can still drop the document.
		view = s.thinView(p)
	}
	s.publish(ctx, events.TopicProductDeleted, view)
	return nil
}

// Get returns one product, enforcing visibility: pending entries are only
// visible to their creator and to elevated actors.
func (s *Service) Get(ctx context.Context, code string, actor *Actor) (*events.ProductMessage, error) {
	p, err := s.products.GetByGTIN(ctx, gtin.Normalize(code))
	if err != nil {
		return nil, err
	}
	if p.Status == StatusPending {
		if actor == nil {
			return nil, fmt.Errorf("%w: product is not published", ErrPermissionDenied)
		}
		if !actor.Elevated() && p.CreatedBy != actor.ID {
			return nil, fmt.Errorf("%w: product is not published", ErrPermissionDenied)
		}
	}
	return s.view(ctx, p)
}

// List applies the role visibility rules: unauthenticated callers see
// published entries, base actors additionally see their own pending
// entries, elevated actors see everything with optional filters.
func (s *Service) List(ctx context.Context, actor *Actor, filter ListFilter) ([]*events.ProductMessage, error) {
	var items []*Product
	var err error

	switch {
	case actor == nil:
		items, err = s.products.List(ctx, ListFilter{Status: StatusPublished})
	case actor.Elevated():
		items, err = s.products.List(ctx, filter)
	default:
		published, perr := s.products.List(ctx, ListFilter{Status: StatusPublished})
		if perr != nil {
			return nil, perr
		}
		own, perr := s.products.List(ctx, ListFilter{Status: StatusPending, CreatedBy: actor.ID})
		if perr != nil {
			return nil, perr
		}
		items = append(published, own...)
		sort.Slice(items, func(i, j int) bool {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		})
	}
	if err != nil {
		return nil, err
	}

	views := make([]*events.ProductMessage, 0, len(items))
	for _, p := range items {
		view, verr := s.view(ctx, p)
		if verr != nil {
			log.Printf("[Catalog] Skipping %s in listing: %v", p.GTIN, verr)
			continue
		}
		views = append(views, view)
	}
	return views, nil
}

// History returns the audit trail for a product. Restricted to elevated
// actors; there is no partial view for providers.
func (s *Service) History(ctx context.Context, code string, actor Actor, opts audit.ListOptions) ([]*audit.Entry, error) {
	if !actor.Elevated() {
		return nil, fmt.Errorf("%w: history requires editor or admin role", ErrPermissionDenied)
	}
	if _, err := s.products.GetByGTIN(ctx, gtin.Normalize(code)); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return s.recorder.History(ctx, gtin.Normalize(code), opts)
}

// view assembles the denormalized DTO: fetch the entity's actor records by
// id, then attach them. No lazy loading.
func (s *Service) view(ctx context.Context, p *Product) (*events.ProductMessage, error) {
	msg := s.thinView(p)

	creator, err := s.users.Get(ctx, p.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("resolve creator of %s: %w", p.GTIN, err)
	}
	msg.CreatedBy = userRef(creator)

	if p.ApprovedBy != "" {
		approver, err := s.users.Get(ctx, p.ApprovedBy)
		if err != nil {
			return nil, fmt.Errorf("resolve approver of %s: %w", p.GTIN, err)
		}
		msg.ApprovedBy = userRef(approver)
	}
	return msg, nil
}

// thinView projects the product without resolving actor records.
func (s *Service) thinView(p *Product) *events.ProductMessage {
	msg := &events.ProductMessage{
		ID:            p.ID,
		GTIN:          p.GTIN,
		Name:          p.Name,
		Description:   p.Description,
		Brand:         p.Brand,
		Manufacturer:  p.Manufacturer,
		NetWeight:     p.NetWeight,
		NetWeightUnit: p.NetWeightUnit,
		Status:        string(p.Status),
		ApprovedAt:    p.ApprovedAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.CreatedBy != "" {
		msg.CreatedBy = &events.UserRef{ID: p.CreatedBy}
	}
	if p.ApprovedBy != "" {
		msg.ApprovedBy = &events.UserRef{ID: p.ApprovedBy}
	}
	return msg
}

func userRef(u *User) *events.UserRef {
	return &events.UserRef{ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role)}
}

// recordAudit writes the audit entry for an accepted mutation. Failures
// are already logged by the recorder and deliberately do not fail the
// mutation: primary-state durability outranks audit durability.
func (s *Service) recordAudit(ctx context.Context, params audit.RecordParams) {
	_, _ = s.recorder.Record(ctx, params)
}

// publish emits a best-effort domain event. Transport failures are logged
// and swallowed; recovery is the search side's forced resync.
func (s *Service) publish(ctx context.Context, topic string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, topic, payload); err != nil {
		log.Printf("[Catalog] Event publish failed: topic=%s: %v", topic, err)
	}
}

func validateCreate(input CreateProduct) error {
	if err := gtin.Validate(input.GTIN); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, gtin.ValidationError(input.GTIN))
	}
	if input.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if input.Description == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}
	if input.Brand == "" {
		return fmt.Errorf("%w: brand is required", ErrValidation)
	}
	if input.Manufacturer == "" {
		return fmt.Errorf("%w: manufacturer is required", ErrValidation)
	}
	if input.NetWeight <= 0 {
		return fmt.Errorf("%w: netWeight must be positive", ErrValidation)
	}
	if !validNetWeightUnit(input.NetWeightUnit) {
		return fmt.Errorf("%w: netWeightUnit must be one of %v", ErrValidation, NetWeightUnits)
	}
	return nil
}

func validateProduct(p *Product) error {
	return validateCreate(CreateProduct{
		GTIN:          p.GTIN,
		Name:          p.Name,
		Description:   p.Description,
		Brand:         p.Brand,
		Manufacturer:  p.Manufacturer,
		NetWeight:     p.NetWeight,
		NetWeightUnit: p.NetWeightUnit,
	})
}

func applyPatch(p *Product, patch Patch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Brand != nil {
		p.Brand = *patch.Brand
	}
	if patch.Manufacturer != nil {
		p.Manufacturer = *patch.Manufacturer
	}
	if patch.NetWeight != nil {
		p.NetWeight = *patch.NetWeight
	}
	if patch.NetWeightUnit != nil {
		p.NetWeightUnit = *patch.NetWeightUnit
	}
}
