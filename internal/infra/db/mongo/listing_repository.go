package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "rentbazaar/internal/domain/listings"
	domainpricing "rentbazaar/internal/domain/pricing"
	domainrange "rentbazaar/internal/domain/shared/daterange"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	col := db.Collection("agg_listing")
	ownerIdx := mongo.IndexModel{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), ownerIdx)
	return &ListingRepository{col: col}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrListingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	doc := newListingDocument(listing)
	filter := bson.M{"_id": doc.ID, "version": listing.Version}
	doc.Version = listing.Version + 1
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
	listing.Version = doc.Version
	return nil
}

func (r *ListingRepository) ListByOwner(ctx context.Context, owner domainlistings.OwnerID) ([]*domainlistings.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{"owner_id": string(owner)}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []*domainlistings.Listing
	for cursor.Next(ctx) {
		var doc listingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type rateCardDocument struct {
	Hourly  moneyDocument `bson:"hourly"`
	Daily   moneyDocument `bson:"daily"`
	Weekly  moneyDocument `bson:"weekly"`
	Monthly moneyDocument `bson:"monthly"`
}

type listingDocument struct {
	ID           string           `bson:"_id"`
	OwnerID      string           `bson:"owner_id"`
	Title        string           `bson:"title"`
	Description  string           `bson:"description,omitempty"`
	Category     string           `bson:"category,omitempty"`
	City         string           `bson:"city,omitempty"`
	Rates        rateCardDocument `bson:"rates"`
	BlockedDates []int64          `bson:"blocked_dates,omitempty"`
	Deposit      moneyDocument    `bson:"deposit"`
	State        string           `bson:"state"`
	CreatedAt    int64            `bson:"created_at"`
	UpdatedAt    int64            `bson:"updated_at"`
	Version      int64            `bson:"version"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	doc := listingDocument{
		ID:          string(l.ID),
		OwnerID:     string(l.Owner),
		Title:       l.Title,
		Description: l.Description,
		Category:    l.Category,
		City:        l.City,
		Rates: rateCardDocument{
			Hourly:  newMoneyDocument(l.Rates.Hourly),
			Daily:   newMoneyDocument(l.Rates.Daily),
			Weekly:  newMoneyDocument(l.Rates.Weekly),
			Monthly: newMoneyDocument(l.Rates.Monthly),
		},
		Deposit:   newMoneyDocument(l.Policies.Deposit),
		State:     string(l.State),
		CreatedAt: l.CreatedAt.UnixMilli(),
		UpdatedAt: l.UpdatedAt.UnixMilli(),
		Version:   l.Version,
	}
	for _, day := range l.Availability.BlockedDates {
		doc.BlockedDates = append(doc.BlockedDates, day.UnixMilli())
	}
	return doc
}

func (d listingDocument) toAggregate() *domainlistings.Listing {
	l := &domainlistings.Listing{
		ID:          domainlistings.ListingID(d.ID),
		Owner:       domainlistings.OwnerID(d.OwnerID),
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		City:        d.City,
		Rates: domainpricing.RateCard{
			Hourly:  d.Rates.Hourly.toMoney(),
			Daily:   d.Rates.Daily.toMoney(),
			Weekly:  d.Rates.Weekly.toMoney(),
			Monthly: d.Rates.Monthly.toMoney(),
		},
		Policies:  domainlistings.Policies{Deposit: d.Deposit.toMoney()},
		State:     domainlistings.ListingState(d.State),
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
	for _, ms := range d.BlockedDates {
		l.Availability.BlockedDates = append(l.Availability.BlockedDates, domainrange.DayOf(timestampToTime(ms)))
	}
	return l
}
