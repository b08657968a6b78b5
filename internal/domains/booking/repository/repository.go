package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"stayfinder/infras/otel"
	"stayfinder/infras/postgres"
	"stayfinder/internal/domains/booking/model"
	"stayfinder/shared"
	"stayfinder/shared/constant"
	"stayfinder/shared/daterange"
	gDto "stayfinder/shared/dto"
	gRepo "stayfinder/shared/repository"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrOverlap  = errors.New("booking overlaps an existing reservation")
	ErrNotFound = errors.New("booking not found")
)

// MutateFunc edits a locked booking in place. Returning changed=false skips
// the write and hands the booking back untouched.
type MutateFunc func(booking *model.Booking) (changed bool, err error)

type Booking interface {
	// InsertIfAvailable stores booking unless a blocking booking on the same
	// listing overlaps it, in which case ErrOverlap is returned. The check and
	// the insert are atomic with respect to other callers.
	InsertIfAvailable(ctx context.Context, booking model.Booking) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Booking, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	// Mutate applies fn to the current row under a row lock and persists the
	// result. ErrNotFound is returned for unknown ids.
	Mutate(ctx context.Context, id string, fn MutateFunc) (model.Booking, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

func (r *repositoryImpl) InsertIfAvailable(ctx context.Context, booking model.Booking) (err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.InsertIfAvailable")
	defer scope.End()
	defer scope.TraceIfError(&err)

	scope.SetAttribute("listing_id", booking.ListingID)

	err = r.db.WithTx(ctx, nil, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", booking.ListingID); err != nil {
			return fmt.Errorf("failed to lock listing (%s): %w", booking.ListingID, err)
		}

		overlap, err := r.ExistTx(ctx, tx, OverlapFilter(booking.ListingID, booking.Range()))
		if err != nil {
			return err //nolint:wrapcheck
		}

		if overlap {
			return ErrOverlap
		}

		return r.InsertTx(ctx, tx, booking) //nolint:wrapcheck
	})

	if isExclusionViolation(err) {
		return ErrOverlap
	}

	return err //nolint:wrapcheck
}

func (r *repositoryImpl) Mutate(ctx context.Context, id string, fn MutateFunc) (res model.Booking, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.Mutate")
	defer scope.End()
	defer scope.TraceIfError(&err)

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	err = r.db.WithTx(ctx, nil, func(tx *sqlx.Tx) error {
		current, err := r.GetForUpdateTx(ctx, tx, filter)
		if err != nil {
			return err //nolint:wrapcheck
		}

		if current.ID == constant.Empty {
			return ErrNotFound
		}

		changed, err := fn(&current)
		if err != nil {
			return err
		}

		res = current

		if !changed {
			return nil
		}

		return r.UpdateTx(ctx, tx, current.MutableFields(), filter) //nolint:wrapcheck
	})

	return res, err //nolint:wrapcheck
}

// OverlapFilter matches blocking bookings of listingID that share a night with dateRange.
func OverlapFilter(listingID string, dateRange daterange.DateRange) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldListingID,
				Value:    listingID,
				Operator: gDto.FilterOperatorEq,
				Table:    model.TableName,
			},
			gDto.Filter{
				Field:    model.FieldStatus,
				Value:    string(model.StatusCancelled),
				Operator: gDto.FilterOperatorNotEq,
				Table:    model.TableName,
			},
			gDto.Filter{
				ArgName:  "range_check_out",
				Field:    model.FieldCheckIn,
				Value:    dateRange.CheckOut,
				Operator: gDto.FilterOperatorLess,
				Table:    model.TableName,
			},
			gDto.Filter{
				ArgName:  "range_check_in",
				Field:    model.FieldCheckOut,
				Value:    dateRange.CheckIn,
				Operator: gDto.FilterOperatorGreater,
				Table:    model.TableName,
			},
		},
	}
}

// BlockingFilter matches every booking of listingID that still holds its dates.
func BlockingFilter(listingID string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldListingID,
				Value:    listingID,
				Operator: gDto.FilterOperatorEq,
				Table:    model.TableName,
			},
			gDto.Filter{
				Field:    model.FieldStatus,
				Value:    string(model.StatusCancelled),
				Operator: gDto.FilterOperatorNotEq,
				Table:    model.TableName,
			},
		},
	}
}

// ActiveFilter matches pending or confirmed bookings of listingID.
func ActiveFilter(listingID string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldListingID,
				Value:    listingID,
				Operator: gDto.FilterOperatorEq,
				Table:    model.TableName,
			},
			gDto.Filter{
				Field:    model.FieldStatus,
				Value:    []string{string(model.StatusPending), string(model.StatusConfirmed)},
				Operator: gDto.FilterOperatorIn,
				Table:    model.TableName,
			},
		},
	}
}

func isExclusionViolation(err error) bool {
	var pqErr *pq.Error

	return errors.As(err, &pqErr) && pqErr.Code == constant.PqErrorCodeExclusion
}
