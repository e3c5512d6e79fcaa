package mongorepos

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/findmytutor/findmytutor/core"
	"github.com/findmytutor/findmytutor/core/tutor"
	"github.com/findmytutor/findmytutor/storage/database"
)

// tutorDoc is the stored tutor shape. experience and assignedTuitions are kept raw:
// older clients stored experience as any number and assignments as reference ids.
type tutorDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Name             string             `bson:"name"`
	Experience       bson.RawValue      `bson:"experience"`
	DateJoined       time.Time          `bson:"dateJoined"`
	Qualification    string             `bson:"qualification"`
	AssignedTuitions []bson.RawValue    `bson:"assignedTuitions"`
	CreatedAt        time.Time          `bson:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt"`
}

// toTutor also returns how many assignment elements could not be read at all.
func (doc tutorDoc) toTutor() (tutor.Tutor, int) {
	seq := make([]tutor.Assignment, 0, len(doc.AssignedTuitions))
	var dropped int
	for _, rv := range doc.AssignedTuitions {
		a, ok := toAssignment(rv)
		if !ok {
			dropped++
			continue
		}
		seq = append(seq, a)
	}
	return tutor.Tutor{
		ID:               doc.ID.Hex(),
		Name:             doc.Name,
		Experience:       experienceOf(doc.Experience),
		DateJoined:       doc.DateJoined.UTC(),
		Qualification:    doc.Qualification,
		AssignedTuitions: seq,
		CreatedAt:        doc.CreatedAt.UTC(),
		UpdatedAt:        doc.UpdatedAt.UTC(),
	}, dropped
}

// experienceOf reads a stored experience. Fractions are truncated;
// negative, NaN and non-numeric values read as 0.
func experienceOf(rv bson.RawValue) int {
	var years float64
	switch rv.Type {
	case bsontype.Int32:
		years = float64(rv.Int32())
	case bsontype.Int64:
		years = float64(rv.Int64())
	case bsontype.Double:
		years = rv.Double()
	case bsontype.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(rv.StringValue()), 64)
		if err != nil {
			return 0
		}
		years = f
	default:
		return 0
	}
	switch {
	case math.IsNaN(years) || years < 0:
		return 0
	case years > math.MaxInt32:
		return math.MaxInt32
	}
	return int(years)
}

// toAssignment reads one stored element. Bare legacy references and numbers become a
// label with a zero time, as do pairs missing their timestamp, so a later rewrite keeps them.
func toAssignment(rv bson.RawValue) (tutor.Assignment, bool) {
	if rv.Type != bsontype.Array {
		label, ok := labelOf(rv)
		return tutor.Assignment{Label: label}, ok
	}
	vals, err := rv.Array().Values()
	if err != nil || len(vals) == 0 {
		return tutor.Assignment{}, false
	}
	label, ok := labelOf(vals[0])
	if !ok {
		return tutor.Assignment{}, false
	}
	a := tutor.Assignment{Label: label}
	if len(vals) > 1 {
		a.Date = timeOf(vals[1])
	}
	return a, true
}

// labelOf renders a stored label; ok is false for values that cannot be one.
func labelOf(rv bson.RawValue) (string, bool) {
	switch rv.Type {
	case bsontype.String:
		return rv.StringValue(), true
	case bsontype.ObjectID:
		return rv.ObjectID().Hex(), true
	case bsontype.Int32:
		return strconv.Itoa(int(rv.Int32())), true
	case bsontype.Int64:
		return strconv.FormatInt(rv.Int64(), 10), true
	case bsontype.Double:
		return strconv.FormatFloat(rv.Double(), 'f', -1, 64), true
	}
	return "", false
}

func timeOf(rv bson.RawValue) time.Time {
	if t, ok := rv.TimeOK(); ok {
		return t.UTC()
	}
	if s, ok := rv.StringValueOK(); ok {
		if t, err := core.ParseTimestamp(s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func toPair(a tutor.Assignment) bson.A {
	return bson.A{a.Label, core.FormatISO(a.Date)}
}

func toPairs(seq []tutor.Assignment) bson.A {
	pairs := make(bson.A, 0, len(seq))
	for _, a := range seq {
		pairs = append(pairs, toPair(a))
	}
	return pairs
}

type tutorRepository struct {
	coll   *mongo.Collection
	logger core.Logger
	now    func() time.Time
}

func NewTutorRepository(db *mongo.Database, logger core.Logger) tutor.Repository {
	vala.BeginValidation().Validate(
		vala.IsNotNil(db, "db"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()
	return &tutorRepository{
		coll:   db.Collection(database.TutorsCollection),
		logger: logger,
		now:    time.Now,
	}
}

func (repo *tutorRepository) toTutor(doc tutorDoc) tutor.Tutor {
	t, dropped := doc.toTutor()
	if dropped > 0 {
		repo.logger.Warn(fmt.Sprintf("tutor %s: skipped %d unreadable assignments", t.ID, dropped))
	}
	return t
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, tutor.ErrNotFound
	}
	return oid, nil
}

func (repo *tutorRepository) CreateTutor(ctx context.Context, t tutor.Tutor) (tutor.Tutor, error) {
	oid := primitive.NewObjectID()
	doc := bson.D{
		{Key: "_id", Value: oid},
		{Key: "name", Value: t.Name},
		{Key: "experience", Value: t.Experience},
		{Key: "dateJoined", Value: t.DateJoined},
		{Key: "qualification", Value: t.Qualification},
		{Key: "assignedTuitions", Value: toPairs(t.AssignedTuitions)},
		{Key: "createdAt", Value: t.CreatedAt},
		{Key: "updatedAt", Value: t.UpdatedAt},
	}
	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		return tutor.Tutor{}, errors.Wrap(err, "inserting tutor")
	}
	return repo.GetTutor(ctx, oid.Hex())
}

func (repo *tutorRepository) QueryTutors(ctx context.Context, filter tutor.QueryFilter, orderings []core.DBOrdering) ([]tutor.Tutor, error) {
	query := bson.M{}
	if filter.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"name": rx},
			bson.M{"qualification": rx},
		}
	}

	sort := make(bson.D, 0, len(orderings)+1)
	for _, ord := range orderings {
		sort = append(sort, bson.E{Key: ord.Field, Value: ord.Direction()})
	}
	sort = append(sort, bson.E{Key: "_id", Value: -1})

	cur, err := repo.coll.Find(ctx, query, options.Find().SetSort(sort))
	if err != nil {
		return nil, errors.Wrap(err, "finding tutors")
	}
	defer func() { _ = cur.Close(ctx) }()

	// a document that cannot be decoded is logged and left out of the list
	tutors := make([]tutor.Tutor, 0)
	for cur.Next(ctx) {
		var doc tutorDoc
		if err = cur.Decode(&doc); err != nil {
			id, _ := cur.Current.Lookup("_id").ObjectIDOK()
			repo.logger.Warn(fmt.Sprintf("skipping unreadable tutor %s: %v", id.Hex(), err), err)
			continue
		}
		tutors = append(tutors, repo.toTutor(doc))
	}
	if err = cur.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating tutors")
	}
	return tutors, nil
}

func (repo *tutorRepository) GetTutor(ctx context.Context, id string) (tutor.Tutor, error) {
	oid, err := objectID(id)
	if err != nil {
		return tutor.Tutor{}, err
	}
	var doc tutorDoc
	if err = repo.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return tutor.Tutor{}, tutor.ErrNotFound
		}
		return tutor.Tutor{}, errors.Wrap(err, "finding tutor")
	}
	return repo.toTutor(doc), nil
}

func (repo *tutorRepository) UpdateTutor(ctx context.Context, id string, p tutor.Profile) (tutor.Tutor, error) {
	return repo.findAndUpdate(ctx, id, bson.M{
		"$set": bson.M{
			"name":          p.Name,
			"experience":    p.Experience,
			"dateJoined":    p.DateJoined,
			"qualification": p.Qualification,
			"updatedAt":     repo.now().UTC(),
		},
	})
}

func (repo *tutorRepository) DeleteTutor(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := repo.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errors.Wrap(err, "deleting tutor")
	}
	if res.DeletedCount == 0 {
		return tutor.ErrNotFound
	}
	return nil
}

// PushAssignment appends with $push; concurrent appends both survive.
func (repo *tutorRepository) PushAssignment(ctx context.Context, id string, a tutor.Assignment) (tutor.Tutor, error) {
	return repo.findAndUpdate(ctx, id, bson.M{
		"$push": bson.M{"assignedTuitions": toPair(a)},
		"$set":  bson.M{"updatedAt": repo.now().UTC()},
	})
}

// SetAssignments overwrites the whole field; concurrent calls are last-writer-wins.
func (repo *tutorRepository) SetAssignments(ctx context.Context, id string, seq []tutor.Assignment) (tutor.Tutor, error) {
	return repo.findAndUpdate(ctx, id, bson.M{
		"$set": bson.M{
			"assignedTuitions": toPairs(seq),
			"updatedAt":        repo.now().UTC(),
		},
	})
}

func (repo *tutorRepository) findAndUpdate(ctx context.Context, id string, update bson.M) (tutor.Tutor, error) {
	oid, err := objectID(id)
	if err != nil {
		return tutor.Tutor{}, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc tutorDoc
	if err = repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return tutor.Tutor{}, tutor.ErrNotFound
		}
		return tutor.Tutor{}, errors.Wrap(err, "updating tutor")
	}
	return repo.toTutor(doc), nil
}
