package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"carbooking/internal/app/dto"
	"carbooking/internal/app/policies"
	"carbooking/internal/domain/pricing"
)

var ErrUploaderRequired = errors.New("s3: uploader required")

// PriceArchive writes one immutable JSON object per priced booking revision,
// keyed by booking number and revision time.
type PriceArchive struct {
	Uploader Uploader
	Prefix   string
	Now      func() time.Time
}

type priceSnapshot struct {
	BookingID     string            `json:"booking_id"`
	BookingNumber string            `json:"booking_number"`
	VehicleID     string            `json:"vehicle_id"`
	RentalDays    int               `json:"rental_days"`
	Status        string            `json:"status"`
	Breakdown     pricing.Breakdown `json:"pricing_breakdown"`
	RevisedAt     time.Time         `json:"revised_at"`
	ArchivedAt    time.Time         `json:"archived_at"`
}

func (a PriceArchive) ArchivePrice(ctx context.Context, b dto.Booking) error {
	if a.Uploader == nil {
		return ErrUploaderRequired
	}
	snap := priceSnapshot{
		BookingID:     b.ID,
		BookingNumber: b.Number,
		VehicleID:     b.VehicleID,
		RentalDays:    b.RentalDays,
		Status:        b.Status,
		Breakdown:     b.Price,
		RevisedAt:     b.UpdatedAt.UTC(),
		ArchivedAt:    a.now().UTC(),
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = a.Uploader.Upload(ctx, a.Key(b), bytes.NewReader(body), int64(len(body)), "application/json")
	return err
}

// Key is "<prefix>/<number>/<revision unix millis>.json".
func (a PriceArchive) Key(b dto.Booking) string {
	prefix := a.Prefix
	if prefix == "" {
		prefix = "price-snapshots"
	}
	return fmt.Sprintf("%s/%s/%d.json", prefix, b.Number, b.UpdatedAt.UnixMilli())
}

func (a PriceArchive) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

var _ policies.SnapshotArchiver = PriceArchive{}
