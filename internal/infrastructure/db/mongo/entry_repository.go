package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ledgerly/finance-tracker/internal/core/domain"
	"github.com/ledgerly/finance-tracker/internal/core/ports"
)

const entriesCollection = "entries"

// EntryRepository implements ports.EntryRepository using MongoDB. Every
// filter it builds starts with the owner's user_id.
type EntryRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewEntryRepository(db *mongo.Database) *EntryRepository {
	return &EntryRepository{col: db.Collection(entriesCollection), now: time.Now}
}

type entryDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      primitive.ObjectID `bson:"user_id"`
	Date        time.Time          `bson:"date"`
	Time        string             `bson:"time,omitempty"`
	Type        string             `bson:"type"`
	Category    string             `bson:"category"`
	Amount      float64            `bson:"amount"`
	Description string             `bson:"description,omitempty"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (d *entryDoc) toDomain() *domain.Entry {
	return &domain.Entry{
		ID:          d.ID.Hex(),
		UserID:      d.UserID.Hex(),
		Date:        d.Date.UTC(),
		Time:        d.Time,
		Type:        domain.EntryType(d.Type),
		Category:    d.Category,
		Amount:      d.Amount,
		Description: d.Description,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

// Create inserts a new entry document and sets e.ID.
func (r *EntryRepository) Create(ctx context.Context, e *domain.Entry) error {
	uid, ok := objectID(e.UserID)
	if !ok {
		return fmt.Errorf("insert entry: invalid user id %q", e.UserID)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := entryDoc{
		UserID:      uid,
		Date:        e.Date.UTC(),
		Time:        e.Time,
		Type:        string(e.Type),
		Category:    e.Category,
		Amount:      e.Amount,
		Description: e.Description,
		CreatedAt:   e.CreatedAt.UTC(),
		UpdatedAt:   e.UpdatedAt.UTC(),
	}
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		e.ID = id.Hex()
	}
	return nil
}

// ListByUser returns all of the user's entries, newest first.
func (r *EntryRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Entry, error) {
	uid, ok := objectID(userID)
	if !ok {
		return []*domain.Entry{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	return r.find(ctx, bson.D{{Key: "user_id", Value: uid}}, opts)
}

// Update applies patch to an entry the user owns and returns the new state.
func (r *EntryRepository) Update(ctx context.Context, userID, entryID string, patch domain.EntryPatch) (*domain.Entry, error) {
	filter, ok := ownedFilter(userID, entryID)
	if !ok {
		return nil, domain.ErrEntryNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc entryDoc
	err := r.col.FindOneAndUpdate(ctx, filter, patchUpdate(patch, r.now().UTC()), opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, fmt.Errorf("update entry: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *EntryRepository) Delete(ctx context.Context, userID, entryID string) error {
	filter, ok := ownedFilter(userID, entryID)
	if !ok {
		return domain.ErrEntryNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

// ListInRange returns the user's entries dated within [f.From, f.To].
func (r *EntryRepository) ListInRange(ctx context.Context, f ports.RangeFilter) ([]*domain.Entry, error) {
	uid, ok := objectID(f.UserID)
	if !ok {
		return []*domain.Entry{}, nil
	}
	dir := -1
	if f.Ascending {
		dir = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: dir}, {Key: "_id", Value: dir}})
	return r.find(ctx, rangeFilter(uid, f), opts)
}

// MonthlyTotals sums amounts per calendar month and type within [from, to].
func (r *EntryRepository) MonthlyTotals(ctx context.Context, userID string, from, to time.Time) ([]domain.MonthTotals, error) {
	uid, ok := objectID(userID)
	if !ok {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Aggregate(ctx, monthlyTotalsPipeline(uid, from, to))
	if err != nil {
		return nil, fmt.Errorf("aggregate totals: %w", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Month        int     `bson:"_id"`
		Earnings     float64 `bson:"earnings"`
		Expenditures float64 `bson:"expenditures"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode totals: %w", err)
	}

	out := make([]domain.MonthTotals, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.MonthTotals{
			Month:        time.Month(row.Month),
			Earnings:     row.Earnings,
			Expenditures: row.Expenditures,
		})
	}
	return out, nil
}

// EnsureIndexes creates the (user_id, date) index every listing relies on.
func (r *EntryRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *EntryRepository) find(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]*domain.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find entries: %w", err)
	}
	defer cur.Close(ctx)

	var docs []entryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}

	out := make([]*domain.Entry, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// ownedFilter matches one entry by id and owner. Either id being malformed
// means no document can match.
func ownedFilter(userID, entryID string) (bson.D, bool) {
	uid, ok := objectID(userID)
	if !ok {
		return nil, false
	}
	eid, ok := objectID(entryID)
	if !ok {
		return nil, false
	}
	return bson.D{{Key: "_id", Value: eid}, {Key: "user_id", Value: uid}}, true
}

func rangeFilter(uid primitive.ObjectID, f ports.RangeFilter) bson.D {
	filter := bson.D{
		{Key: "user_id", Value: uid},
		{Key: "date", Value: bson.M{"$gte": f.From.UTC(), "$lte": f.To.UTC()}},
	}
	if f.Type != "" {
		filter = append(filter, bson.E{Key: "type", Value: f.Type})
	}
	if f.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: primitive.Regex{
			Pattern: "^" + regexp.QuoteMeta(f.Category) + "$",
			Options: "i",
		}})
	}
	if f.Description != "" {
		filter = append(filter, bson.E{Key: "description", Value: primitive.Regex{
			Pattern: regexp.QuoteMeta(f.Description),
			Options: "i",
		}})
	}
	return filter
}

func patchUpdate(p domain.EntryPatch, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	unset := bson.M{}
	if p.Date != nil {
		set["date"] = p.Date.UTC()
	}
	if p.Time != nil {
		if *p.Time == "" {
			unset["time"] = ""
		} else {
			set["time"] = *p.Time
		}
	}
	if p.Type != nil {
		set["type"] = string(*p.Type)
	}
	if p.Category != nil {
		set["category"] = *p.Category
	}
	if p.Amount != nil {
		set["amount"] = *p.Amount
	}
	if p.Description != nil {
		if *p.Description == "" {
			unset["description"] = ""
		} else {
			set["description"] = *p.Description
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func monthlyTotalsPipeline(uid primitive.ObjectID, from, to time.Time) mongo.Pipeline {
	sumOf := func(entryType domain.EntryType) bson.M {
		return bson.M{"$sum": bson.M{"$cond": bson.A{
			bson.M{"$eq": bson.A{"$type", string(entryType)}},
			"$amount",
			0,
		}}}
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "user_id", Value: uid},
			{Key: "date", Value: bson.M{"$gte": from.UTC(), "$lte": to.UTC()}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.M{"$month": "$date"}},
			{Key: "earnings", Value: sumOf(domain.TypeEarning)},
			{Key: "expenditures", Value: sumOf(domain.TypeExpense)},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}
