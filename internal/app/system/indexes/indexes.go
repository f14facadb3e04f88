// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Errors are aggregated so every problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	sets := []struct {
		coll   string
		models []mongo.IndexModel
	}{
		{"users", usersIndexes()},
		{"projects", projectsIndexes()},
		{"requests", requestsIndexes()},
		{"chat_messages", chatIndexes()},
		{"conversations", conversationIndexes()},
		{"private_messages", privateMessageIndexes()},
		{"complaints", complaintIndexes()},
		{"supervisor_ideas", authoredIndexes("supervisor_ideas")},
		{"sponsored_projects", authoredIndexes("sponsored_projects")},
	}
	for _, s := range sets {
		if err := ensureIndexSet(ctx, db.Collection(s.coll), s.models); err != nil {
			problems = append(problems, s.coll+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name    string `bson:"name"`
	Key     bson.D `bson:"key"`
	Unique  *bool  `bson:"unique,omitempty"`
	Partial bson.D `bson:"partialFilterExpression,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

// partialSig renders a partial filter the same way whether it came from
// IndexOptions (bson.D) or from listIndexes.
func partialSig(v interface{}) string {
	switch f := v.(type) {
	case nil:
		return ""
	case bson.D:
		return keySig(f)
	case bson.M:
		d := make(bson.D, 0, len(f))
		for k, val := range f {
			d = append(d, bson.E{Key: k, Value: val})
		}
		return keySig(d)
	default:
		return fmt.Sprintf("%v", f)
	}
}

func boolVal(b *bool) bool { return b != nil && *b }

// isDuplicateKeyErr is a best-effort duplicate detector across vendors.
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo sometimes returns IndexOptionsConflict when an index with the same
// keys already exists under a different name or with different options.
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var (
			name    string
			unique  *bool
			partial string
		)
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
			partial = partialSig(m.Options.PartialFilterExpression)
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", boolVal(unique)))

		existing := listExisting(ctx, coll)
		if ex, ok := existing[sig]; ok {
			same := boolVal(unique) == boolVal(ex.Unique) && partial == partialSig(ex.Partial)
			if same && (name == "" || ex.Name == name) {
				log.Info("reusing existing index", zap.Duration("took", time.Since(start)))
				continue
			}
			// Name or options differ: drop and recreate under the desired definition.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop existing index failed", zap.String("existing", ex.Name), zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			switch {
			case isDuplicateKeyErr(err) && boolVal(unique):
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)%s",
					coll.Name(), name, duplicateHint(coll.Name(), sig)))
			case isOptionsConflictErr(err):
				log.Warn("index options conflict", zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			default:
				log.Warn("index ensure failed", zap.Duration("took", time.Since(start)), zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			continue
		}
		log.Info("index ensured", zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func duplicateHint(coll, sig string) string {
	switch {
	case coll == "users" && strings.Contains(sig, "email:1"):
		return ". Example finder:\n" +
			`db.users.aggregate([{ $group: { _id: "$email", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`
	case coll == "requests":
		return ". Duplicate pending requests exist; finalize or delete the extras first"
	}
	return ""
}

/* -------------------------------------------------------------------------- */
/* Per-collection definitions                                                  */
/* -------------------------------------------------------------------------- */

func usersIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_users_email").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_users_role_nameci_id"),
		},
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_users_nameci_id"),
		},
	}
}

func projectsIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "title_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_projects_status_titleci_id"),
		},
		{
			Keys:    bson.D{{Key: "owner", Value: 1}},
			Options: options.Index().SetName("idx_projects_owner"),
		},
		{
			Keys:    bson.D{{Key: "members", Value: 1}},
			Options: options.Index().SetName("idx_projects_members"),
		},
		{
			Keys:    bson.D{{Key: "supervisor", Value: 1}},
			Options: options.Index().SetName("idx_projects_supervisor"),
		},
		{
			Keys:    bson.D{{Key: "recruiter_collaboration.recruiter", Value: 1}},
			Options: options.Index().SetName("idx_projects_recruiter"),
		},
	}
}

func requestsIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			// At most one pending request per (type, from, to, project).
			Keys: bson.D{
				{Key: "request_type", Value: 1},
				{Key: "from_user", Value: 1},
				{Key: "to_user", Value: 1},
				{Key: "project", Value: 1},
			},
			Options: options.Index().
				SetName("uniq_requests_pending").
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "status", Value: "pending"}}),
		},
		{
			Keys:    bson.D{{Key: "from_user", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_requests_from_created"),
		},
		{
			Keys:    bson.D{{Key: "to_user", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_requests_to_status_created"),
		},
		{
			Keys:    bson.D{{Key: "project", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_requests_project_status"),
		},
	}
}

func chatIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "project", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_chat_project_ts"),
		},
		{
			Keys:    bson.D{{Key: "sender", Value: 1}},
			Options: options.Index().SetName("idx_chat_sender"),
		},
	}
}

func conversationIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			// participants is stored sorted, so the pair array is a stable key.
			Keys:    bson.D{{Key: "pair", Value: 1}},
			Options: options.Index().SetName("uniq_conversations_pair").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "participants", Value: 1}, {Key: "last_updated_at", Value: -1}},
			Options: options.Index().SetName("idx_conversations_participants_updated"),
		},
	}
}

func privateMessageIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "conversation", Value: 1}, {Key: "timestamp", Value: 1}},
			Options: options.Index().SetName("idx_pm_conversation_ts"),
		},
		{
			Keys:    bson.D{{Key: "sender", Value: 1}},
			Options: options.Index().SetName("idx_pm_sender"),
		},
		{
			Keys:    bson.D{{Key: "receiver", Value: 1}},
			Options: options.Index().SetName("idx_pm_receiver"),
		},
	}
}

func complaintIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_complaints_status_created"),
		},
		{
			Keys:    bson.D{{Key: "complainer_email", Value: 1}},
			Options: options.Index().SetName("idx_complaints_complainer"),
		},
		{
			Keys:    bson.D{{Key: "sender_email", Value: 1}},
			Options: options.Index().SetName("idx_complaints_sender"),
		},
	}
}

func authoredIndexes(coll string) []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "author", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_" + coll + "_author_created"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_" + coll + "_created_id"),
		},
	}
}
