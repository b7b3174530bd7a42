package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "rentbazaar/internal/domain/booking"
	domainlistings "rentbazaar/internal/domain/listings"
	domainpricing "rentbazaar/internal/domain/pricing"
	domainrange "rentbazaar/internal/domain/shared/daterange"
	"rentbazaar/internal/domain/shared/money"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	col := db.Collection("agg_booking")
	overlapIdx := mongo.IndexModel{Keys: bson.D{
		{Key: "listing_id", Value: 1},
		{Key: "status", Value: 1},
		{Key: "range.start", Value: 1},
	}}
	renterIdx := mongo.IndexModel{Keys: bson.D{{Key: "renter_id", Value: 1}, {Key: "created_at", Value: -1}}}
	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{overlapIdx, renterIdx})
	return &BookingRepository{col: col}
}

func (r *BookingRepository) ByReference(ctx context.Context, ref string) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": ref}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByRenter(ctx context.Context, renterID string) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"renter_id": renterID}, opts)
}

func (r *BookingRepository) ListByListing(ctx context.Context, id domainlistings.ListingID) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"listing_id": string(id)}, opts)
}

// FindOverlapping matches holding bookings whose range intersects dr with
// both endpoints inclusive: existing.start <= dr.End and existing.end >=
// dr.Start.
func (r *BookingRepository) FindOverlapping(ctx context.Context, id domainlistings.ListingID, dr domainrange.DateRange, exclude string) ([]*domainbooking.Booking, error) {
	filter := bson.M{
		"listing_id":  string(id),
		"status":      bson.M{"$in": holdingStatusStrings()},
		"range.start": bson.M{"$lte": dr.End.UnixMilli()},
		"range.end":   bson.M{"$gte": dr.Start.UnixMilli()},
	}
	if exclude != "" {
		filter["_id"] = bson.M{"$ne": exclude}
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "range.start", Value: 1}}))
}

func (r *BookingRepository) ListHoldingEndedBefore(ctx context.Context, cutoff time.Time) ([]*domainbooking.Booking, error) {
	filter := bson.M{
		"status":    bson.M{"$in": []string{string(domainbooking.StatusApproved), string(domainbooking.StatusInProgress)}},
		"range.end": bson.M{"$lt": cutoff.UnixMilli()},
	}
	return r.find(ctx, filter, options.Find())
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domainbooking.Booking, error) {
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []*domainbooking.Booking
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

func holdingStatusStrings() []string {
	holding := domainbooking.HoldingStatuses()
	out := make([]string, len(holding))
	for i, s := range holding {
		out[i] = string(s)
	}
	return out
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func newMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

type feeDocument struct {
	Name   string        `bson:"name"`
	Amount moneyDocument `bson:"amount"`
}

type breakdownDocument struct {
	PriceType      string        `bson:"price_type"`
	UnitPrice      moneyDocument `bson:"unit_price"`
	DurationValue  int           `bson:"duration_value"`
	DurationUnit   string        `bson:"duration_unit"`
	Subtotal       moneyDocument `bson:"subtotal"`
	ServiceFee     moneyDocument `bson:"service_fee"`
	AdditionalFees []feeDocument `bson:"additional_fees,omitempty"`
	Deposit        moneyDocument `bson:"deposit"`
	Total          moneyDocument `bson:"total"`
}

func newBreakdownDocument(b domainpricing.Breakdown) breakdownDocument {
	doc := breakdownDocument{
		PriceType:     string(b.PriceType),
		UnitPrice:     newMoneyDocument(b.UnitPrice),
		DurationValue: b.Duration.Value,
		DurationUnit:  string(b.Duration.Unit),
		Subtotal:      newMoneyDocument(b.Subtotal),
		ServiceFee:    newMoneyDocument(b.ServiceFee),
		Deposit:       newMoneyDocument(b.Deposit),
		Total:         newMoneyDocument(b.Total),
	}
	for _, fee := range b.AdditionalFees {
		doc.AdditionalFees = append(doc.AdditionalFees, feeDocument{Name: fee.Name, Amount: newMoneyDocument(fee.Amount)})
	}
	return doc
}

func (d breakdownDocument) toBreakdown() domainpricing.Breakdown {
	b := domainpricing.Breakdown{
		PriceType:  domainpricing.PriceType(d.PriceType),
		UnitPrice:  d.UnitPrice.toMoney(),
		Duration:   domainpricing.Duration{Value: d.DurationValue, Unit: domainpricing.DurationUnit(d.DurationUnit)},
		Subtotal:   d.Subtotal.toMoney(),
		ServiceFee: d.ServiceFee.toMoney(),
		Deposit:    d.Deposit.toMoney(),
		Total:      d.Total.toMoney(),
	}
	for _, fee := range d.AdditionalFees {
		b.AdditionalFees = append(b.AdditionalFees, domainpricing.Fee{Name: fee.Name, Amount: fee.Amount.toMoney()})
	}
	return b
}

type rangeDocument struct {
	Start int64 `bson:"start"`
	End   int64 `bson:"end"`
}

type cancellationDocument struct {
	ByID         string        `bson:"by_id"`
	ByRole       string        `bson:"by_role"`
	Reason       string        `bson:"reason,omitempty"`
	RefundAmount moneyDocument `bson:"refund_amount"`
	RefundStatus string        `bson:"refund_status"`
	At           int64         `bson:"at"`
}

type extensionDocument struct {
	ID          string        `bson:"id"`
	ProposedEnd int64         `bson:"proposed_end"`
	Additional  moneyDocument `bson:"additional"`
	Status      string        `bson:"status"`
	RequestedAt int64         `bson:"requested_at"`
	DecidedAt   int64         `bson:"decided_at,omitempty"`
}

type damageDocument struct {
	Notes     string   `bson:"notes,omitempty"`
	PhotoURLs []string `bson:"photo_urls,omitempty"`
}

type checkDocument struct {
	ScheduledAt int64           `bson:"scheduled_at"`
	ActualAt    int64           `bson:"actual_at,omitempty"`
	ConfirmedBy string          `bson:"confirmed_by,omitempty"`
	Damage      *damageDocument `bson:"damage,omitempty"`
}

type bookingDocument struct {
	ID           string                `bson:"_id"`
	ListingID    string                `bson:"listing_id"`
	RenterID     string                `bson:"renter_id"`
	OwnerID      string                `bson:"owner_id"`
	Range        rangeDocument         `bson:"range"`
	Price        breakdownDocument     `bson:"price"`
	Status       string                `bson:"status"`
	Payment      string                `bson:"payment"`
	Message      string                `bson:"message,omitempty"`
	Cancellation *cancellationDocument `bson:"cancellation,omitempty"`
	Extensions   []extensionDocument   `bson:"extensions,omitempty"`
	CheckIn      *checkDocument        `bson:"check_in,omitempty"`
	CheckOut     *checkDocument        `bson:"check_out,omitempty"`
	CreatedAt    int64                 `bson:"created_at"`
	UpdatedAt    int64                 `bson:"updated_at"`
	Version      int64                 `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:        b.Reference,
		ListingID: string(b.ListingID),
		RenterID:  b.RenterID,
		OwnerID:   b.OwnerID,
		Range:     rangeDocument{Start: b.Range.Start.UnixMilli(), End: b.Range.End.UnixMilli()},
		Price:     newBreakdownDocument(b.Price),
		Status:    string(b.Status),
		Payment:   string(b.Payment),
		Message:   b.Message,
		CheckIn:   newCheckDocument(b.CheckIn),
		CheckOut:  newCheckDocument(b.CheckOut),
		CreatedAt: b.CreatedAt.UnixMilli(),
		UpdatedAt: b.UpdatedAt.UnixMilli(),
		Version:   b.Version,
	}
	if b.Cancellation != nil {
		doc.Cancellation = &cancellationDocument{
			ByID:         b.Cancellation.By.ID,
			ByRole:       string(b.Cancellation.By.Role),
			Reason:       b.Cancellation.Reason,
			RefundAmount: newMoneyDocument(b.Cancellation.RefundAmount),
			RefundStatus: string(b.Cancellation.RefundStatus),
			At:           b.Cancellation.At.UnixMilli(),
		}
	}
	for _, ext := range b.Extensions {
		extDoc := extensionDocument{
			ID:          ext.ID,
			ProposedEnd: ext.ProposedEnd.UnixMilli(),
			Additional:  newMoneyDocument(ext.AdditionalAmount),
			Status:      string(ext.Status),
			RequestedAt: ext.RequestedAt.UnixMilli(),
		}
		if !ext.DecidedAt.IsZero() {
			extDoc.DecidedAt = ext.DecidedAt.UnixMilli()
		}
		doc.Extensions = append(doc.Extensions, extDoc)
	}
	return doc
}

func newCheckDocument(c *domainbooking.CheckRecord) *checkDocument {
	if c == nil {
		return nil
	}
	doc := &checkDocument{
		ScheduledAt: c.ScheduledAt.UnixMilli(),
		ConfirmedBy: c.ConfirmedBy,
	}
	if !c.ActualAt.IsZero() {
		doc.ActualAt = c.ActualAt.UnixMilli()
	}
	if c.Damage != nil {
		doc.Damage = &damageDocument{Notes: c.Damage.Notes, PhotoURLs: c.Damage.PhotoURLs}
	}
	return doc
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	b := &domainbooking.Booking{
		Reference: d.ID,
		ListingID: domainlistings.ListingID(d.ListingID),
		RenterID:  d.RenterID,
		OwnerID:   d.OwnerID,
		Range:     domainrange.DateRange{Start: timestampToTime(d.Range.Start), End: timestampToTime(d.Range.End)},
		Price:     d.Price.toBreakdown(),
		Status:    domainbooking.Status(d.Status),
		Payment:   domainbooking.PaymentStatus(d.Payment),
		Message:   d.Message,
		CheckIn:   d.CheckIn.toRecord(),
		CheckOut:  d.CheckOut.toRecord(),
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
	if d.Cancellation != nil {
		b.Cancellation = &domainbooking.CancellationRecord{
			By:           domainbooking.Actor{ID: d.Cancellation.ByID, Role: domainbooking.Role(d.Cancellation.ByRole)},
			Reason:       d.Cancellation.Reason,
			RefundAmount: d.Cancellation.RefundAmount.toMoney(),
			RefundStatus: domainbooking.RefundStatus(d.Cancellation.RefundStatus),
			At:           timestampToTime(d.Cancellation.At),
		}
	}
	for _, ext := range d.Extensions {
		record := domainbooking.ExtensionRequest{
			ID:               ext.ID,
			ProposedEnd:      timestampToTime(ext.ProposedEnd),
			AdditionalAmount: ext.Additional.toMoney(),
			Status:           domainbooking.ExtensionStatus(ext.Status),
			RequestedAt:      timestampToTime(ext.RequestedAt),
		}
		if ext.DecidedAt != 0 {
			record.DecidedAt = timestampToTime(ext.DecidedAt)
		}
		b.Extensions = append(b.Extensions, record)
	}
	return b
}

func (d *checkDocument) toRecord() *domainbooking.CheckRecord {
	if d == nil {
		return nil
	}
	record := &domainbooking.CheckRecord{
		ScheduledAt: timestampToTime(d.ScheduledAt),
		ConfirmedBy: d.ConfirmedBy,
	}
	if d.ActualAt != 0 {
		record.ActualAt = timestampToTime(d.ActualAt)
	}
	if d.Damage != nil {
		record.Damage = &domainbooking.DamageReport{Notes: d.Damage.Notes, PhotoURLs: d.Damage.PhotoURLs}
	}
	return record
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
