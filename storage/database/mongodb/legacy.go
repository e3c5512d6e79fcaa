package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/findmytutor/findmytutor/core/tutor"
	"github.com/findmytutor/findmytutor/storage/database"
)

// assignmentsDoc holds the only tutor fields the migration reads.
type assignmentsDoc struct {
	ID               primitive.ObjectID `bson:"_id"`
	AssignedTuitions []bson.RawValue    `bson:"assignedTuitions"`
	UpdatedAt        time.Time          `bson:"updatedAt"`
}

type legacyTuition struct {
	ID          primitive.ObjectID `bson:"_id"`
	Description string             `bson:"description"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

// MigrateLegacyTuitions rewrites tutors whose assignedTuitions hold bare tuition ids
// into [description, createdAt] pairs read from the legacy tuitions collection.
// Pairs already in the new shape are kept in place. It returns the number of tutors rewritten.
func MigrateLegacyTuitions(ctx context.Context, db *mongo.Database) (int, error) {
	tutors := db.Collection(database.TutorsCollection)
	tuitions := db.Collection(database.TuitionsCollection)

	opts := options.Find().SetProjection(bson.M{"assignedTuitions": 1, "updatedAt": 1})
	cur, err := tutors.Find(ctx, bson.M{}, opts)
	if err != nil {
		return 0, errors.Wrap(err, "finding tutors")
	}
	var docs []assignmentsDoc
	if err = cur.All(ctx, &docs); err != nil {
		return 0, errors.Wrap(err, "decoding tutors")
	}

	var migrated int
	for _, doc := range docs {
		seq, changed, err := convertLegacy(ctx, tuitions, doc)
		if err != nil {
			return migrated, errors.Wrapf(err, "converting tutor %s", doc.ID.Hex())
		}
		if !changed {
			continue
		}
		_, err = tutors.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{
			"$set": bson.M{"assignedTuitions": toPairs(seq)},
		})
		if err != nil {
			return migrated, errors.Wrapf(err, "updating tutor %s", doc.ID.Hex())
		}
		migrated++
	}
	return migrated, nil
}

func convertLegacy(ctx context.Context, tuitions *mongo.Collection, doc assignmentsDoc) ([]tutor.Assignment, bool, error) {
	seq := make([]tutor.Assignment, 0, len(doc.AssignedTuitions))
	var changed bool
	for _, rv := range doc.AssignedTuitions {
		if rv.Type == bsontype.Array {
			if a, ok := toAssignment(rv); ok {
				seq = append(seq, a)
			}
			continue
		}

		ref, ok := labelOf(rv)
		if !ok {
			// null or embedded documents carry nothing to convert
			changed = true
			continue
		}
		oid, err := primitive.ObjectIDFromHex(ref)
		if err != nil {
			// free text stored without a timestamp
			seq = append(seq, tutor.NewAssignment(ref, doc.UpdatedAt))
			changed = true
			continue
		}

		var tu legacyTuition
		err = tuitions.FindOne(ctx, bson.M{"_id": oid}).Decode(&tu)
		switch {
		case err == mongo.ErrNoDocuments:
			seq = append(seq, tutor.NewAssignment(ref, oid.Timestamp()))
		case err != nil:
			return nil, false, errors.Wrap(err, "finding tuition")
		default:
			at := tu.CreatedAt
			if at.IsZero() {
				at = oid.Timestamp()
			}
			seq = append(seq, tutor.NewAssignment(tu.Description, at))
		}
		changed = true
	}
	return seq, changed, nil
}
