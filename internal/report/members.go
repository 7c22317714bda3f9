// Package report edits the membership lists of sales reports. The stock-sold
// report tracks a set of product IDs, the MPP report a set of customer IDs;
// both live in a single column whose historical shape is irregular (a bare
// scalar, a JSON scalar, or a JSON array), so the column is normalized to a
// string slice before every edit.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"butcherdesk/internal/logger"
	"butcherdesk/pkg/models"
)

// Membership columns.
const (
	ColumnProducts  = "products"
	ColumnCustomers = "customers"
)

// Edit outcomes surfaced to the presentation layer.
var (
	// ErrAlreadyMember is returned when the ID is already on the report.
	ErrAlreadyMember = errors.New("already in report")

	// ErrNotMember is returned when removing an ID the report doesn't have.
	ErrNotMember = errors.New("not in report")

	// ErrNoID is returned when no ID was supplied (e.g. a cancelled pick).
	ErrNoID = errors.New("no id selected")
)

// MemberStore is the slice of the persistence layer this package needs.
type MemberStore interface {
	UpdateReportMembers(ctx context.Context, id, column string, ids []string) error
}

// Service edits report membership.
type Service struct {
	store MemberStore
	log   zerolog.Logger
}

// NewService builds a report membership Service.
func NewService(store MemberStore) *Service {
	return &Service{
		store: store,
		log:   logger.WithComponent("report"),
	}
}

// ParseMembers normalizes a raw membership column into a string slice.
// Accepts an empty column, a JSON array, a JSON scalar, or a bare value.
func ParseMembers(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		// A legacy bare value that never went through JSON encoding.
		return []string{raw}
	}

	switch v := decoded.(type) {
	case []any:
		members := make([]string, 0, len(v))
		for _, elem := range v {
			switch e := elem.(type) {
			case string:
				members = append(members, e)
			case float64:
				members = append(members, strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", e), "0"), "."))
			}
		}
		return members
	case string:
		return []string{v}
	case float64:
		return []string{strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v), "0"), ".")}
	default:
		return []string{raw}
	}
}

// AddMember adds id to the report's membership column and persists the
// result. Returns ErrAlreadyMember without persisting when id is present.
func (s *Service) AddMember(ctx context.Context, rep *models.Report, column, id string) error {
	const op = "AddMember"

	if id == "" {
		return fmt.Errorf("%s: %w", op, ErrNoID)
	}

	members := ParseMembers(s.column(rep, column))
	for _, existing := range members {
		if existing == id {
			return fmt.Errorf("%s: %w", op, ErrAlreadyMember)
		}
	}
	members = append(members, id)

	if err := s.store.UpdateReportMembers(ctx, rep.ID, column, members); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info().Str("report_id", rep.ID).Str("column", column).Str("member_id", id).Msg("Member added to report")
	return nil
}

// RemoveMember removes id from the report's membership column and persists
// the result. Returns ErrNotMember without persisting when id is absent.
func (s *Service) RemoveMember(ctx context.Context, rep *models.Report, column, id string) error {
	const op = "RemoveMember"

	if id == "" {
		return fmt.Errorf("%s: %w", op, ErrNoID)
	}

	members := ParseMembers(s.column(rep, column))
	kept := members[:0]
	found := false
	for _, existing := range members {
		if existing == id {
			found = true
			continue
		}
		kept = append(kept, existing)
	}
	if !found {
		return fmt.Errorf("%s: %w", op, ErrNotMember)
	}

	if err := s.store.UpdateReportMembers(ctx, rep.ID, column, kept); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info().Str("report_id", rep.ID).Str("column", column).Str("member_id", id).Msg("Member removed from report")
	return nil
}

func (s *Service) column(rep *models.Report, column string) string {
	if column == ColumnCustomers {
		return rep.Customers
	}
	return rep.Products
}
