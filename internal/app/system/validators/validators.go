// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/fypcollab/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
//
// Validators back up the service-level invariants: a project can never hold
// more than models.MaxProjectMembers members, and enum fields only take
// known values.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("projects", projectsSchema())
	ensure("requests", requestsSchema())
	ensure("chat_messages", chatMessagesSchema())
	ensure("conversations", conversationsSchema())
	ensure("private_messages", privateMessagesSchema())
	ensure("complaints", complaintsSchema())

	// Listings and audit events don't need validators; we still ensure the collections exist.
	ensure("supervisor_ideas", nil)
	ensure("sponsored_projects", nil)
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var (
	nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}
	objectID = bson.M{"bsonType": "objectId"}
	idArray  = bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}}
	dateType = bson.M{"bsonType": "date"}
)

func enumOf[T ~string](values ...T) bson.A {
	out := bson.A{}
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "email", "password_hash", "role"},
			"properties": bson.M{
				"name":                   nonBlank,
				"name_ci":                bson.M{"bsonType": "string"},
				"email":                  nonBlank,
				"password_hash":          nonBlank,
				"role":                   bson.M{"enum": enumOf(models.Roles...)},
				"owned_projects":         idArray,
				"enrolled_projects":      idArray,
				"supervised_projects":    idArray,
				"collaborating_projects": idArray,
			},
		},
	}
}

func projectsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "owner", "members", "max_members", "status"},
			"properties": bson.M{
				"title":       nonBlank,
				"owner":       objectID,
				"max_members": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 1, "maximum": models.MaxProjectMembers},
				"members": bson.M{
					"bsonType":    "array",
					"items":       bson.M{"bsonType": "objectId"},
					"maxItems":    models.MaxProjectMembers,
					"uniqueItems": true,
				},
				"supervisor": bson.M{"bsonType": bson.A{"objectId", "null"}},
				"recruiter_collaboration": bson.M{
					"bsonType": "object",
					"properties": bson.M{
						"status": bson.M{"enum": enumOf(
							models.CollaborationNone, models.CollaborationPending,
							models.CollaborationApproved, models.CollaborationRejected)},
						"recruiter": bson.M{"bsonType": bson.A{"objectId", "null"}},
					},
				},
				"status": bson.M{"enum": enumOf(models.ProjectOpen, models.ProjectClosed, models.ProjectCompleted)},
			},
		},
	}
}

func requestsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"request_type", "from_user", "to_user", "project", "status", "created_at"},
			"properties": bson.M{
				"request_type": bson.M{"enum": enumOf(models.RequestJoinProject, models.RequestSupervisor, models.RequestRecruiter)},
				"from_user":    objectID,
				"to_user":      objectID,
				"project":      objectID,
				"status":       bson.M{"enum": enumOf(models.RequestPending, models.RequestApproved, models.RequestRejected)},
				"message":      bson.M{"bsonType": "string", "maxLength": 1000},
				"created_at":   dateType,
			},
		},
	}
}

func chatMessagesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"project", "sender", "content", "timestamp"},
			"properties": bson.M{
				"project":   objectID,
				"sender":    objectID,
				"content":   bson.M{"bsonType": "string", "minLength": 1, "maxLength": models.MaxMessageLength},
				"timestamp": dateType,
			},
		},
	}
}

func conversationsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"pair", "participants"},
			"properties": bson.M{
				"pair": nonBlank,
				"participants": bson.M{
					"bsonType": "array",
					"items":    bson.M{"bsonType": "objectId"},
					"minItems": 2,
					"maxItems": 2,
				},
				"last_message": bson.M{"bsonType": bson.A{"objectId", "null"}},
			},
		},
	}
}

func privateMessagesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"conversation", "sender", "receiver", "content", "timestamp"},
			"properties": bson.M{
				"conversation": objectID,
				"sender":       objectID,
				"receiver":     objectID,
				"content":      bson.M{"bsonType": "string", "minLength": 1, "maxLength": models.MaxMessageLength},
				"timestamp":    dateType,
			},
		},
	}
}

func complaintsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"message_id", "sender_email", "complainer_email", "description", "status"},
			"properties": bson.M{
				"message_id":       objectID,
				"sender_email":     bson.M{"bsonType": "string"},
				"complainer_email": bson.M{"bsonType": "string"},
				"description":      nonBlank,
				"status":           bson.M{"enum": enumOf(models.ComplaintPending, models.ComplaintReviewed, models.ComplaintResolved)},
			},
		},
	}
}
