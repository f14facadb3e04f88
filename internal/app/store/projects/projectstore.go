// internal/app/store/projects/projectstore.go
package projectstore

import (
	"context"
	"maps"
	"regexp"
	"time"

	"github.com/dalemusser/fypcollab/internal/app/system/normalize"
	"github.com/dalemusser/fypcollab/internal/app/system/paging"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Conditional writes below return matched=false when the document no longer
// satisfies the precondition (another writer got there first, or the project
// is gone). Callers re-read to tell the two apart.

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("projects")}
}

// Create inserts a project. The owner is always the first member, max
// members defaults to and is capped at models.MaxProjectMembers, and the
// recruiter collaboration starts at "none".
func (s *Store) Create(ctx context.Context, p models.Project) (models.Project, error) {
	p.ID = primitive.NewObjectID()
	p.Title = normalize.Name(p.Title)
	p.TitleCI = text.Fold(p.Title)
	p.RequiredSkills = normalize.Tags(p.RequiredSkills)
	if p.RequiredSkills == nil {
		p.RequiredSkills = []string{}
	}
	if p.MaxMembers <= 0 || p.MaxMembers > models.MaxProjectMembers {
		p.MaxMembers = models.MaxProjectMembers
	}
	p.Members = []primitive.ObjectID{p.Owner}
	p.Supervisor = nil
	p.Recruiter = models.RecruiterCollaboration{Status: models.CollaborationNone}
	if p.Status == "" {
		p.Status = models.ProjectOpen
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Project{}, err
	}
	return p, nil
}

// GetByID loads a project. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var p models.Project
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) updateOne(ctx context.Context, filter, update bson.M) (bool, error) {
	if set, ok := update["$set"].(bson.M); ok {
		set["updated_at"] = time.Now().UTC()
	} else {
		update["$set"] = bson.M{"updated_at": time.Now().UTC()}
	}
	res, err := s.c.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// AddMember appends userID to members only if the user is not already a
// member and a slot is free.
func (s *Store) AddMember(ctx context.Context, projectID, userID primitive.ObjectID) (bool, error) {
	return s.updateOne(ctx, bson.M{
		"_id":     projectID,
		"members": bson.M{"$ne": userID},
		"$expr":   bson.M{"$lt": bson.A{bson.M{"$size": "$members"}, "$max_members"}},
	}, bson.M{"$push": bson.M{"members": userID}})
}

// RemoveMember pulls userID from members. The owner is never removed.
func (s *Store) RemoveMember(ctx context.Context, projectID, userID primitive.ObjectID) (bool, error) {
	return s.updateOne(ctx, bson.M{
		"_id":     projectID,
		"members": userID,
		"owner":   bson.M{"$ne": userID},
	}, bson.M{"$pull": bson.M{"members": userID}})
}

// SetSupervisor assigns a supervisor only if none is assigned.
func (s *Store) SetSupervisor(ctx context.Context, projectID, supervisorID primitive.ObjectID) (bool, error) {
	return s.updateOne(ctx,
		bson.M{"_id": projectID, "supervisor": nil},
		bson.M{"$set": bson.M{"supervisor": supervisorID}})
}

// ClearSupervisor unassigns the supervisor only if it is still expected.
func (s *Store) ClearSupervisor(ctx context.Context, projectID, expected primitive.ObjectID) (bool, error) {
	return s.updateOne(ctx,
		bson.M{"_id": projectID, "supervisor": expected},
		bson.M{"$set": bson.M{"supervisor": nil}})
}

// ApproveRecruiter attaches recruiterID only if no collaboration is approved.
func (s *Store) ApproveRecruiter(ctx context.Context, projectID, recruiterID primitive.ObjectID) (bool, error) {
	return s.updateOne(ctx, bson.M{
		"_id":                            projectID,
		"recruiter_collaboration.status": bson.M{"$ne": models.CollaborationApproved},
	}, bson.M{"$set": bson.M{
		"recruiter_collaboration": models.RecruiterCollaboration{
			Status:    models.CollaborationApproved,
			Recruiter: &recruiterID,
		},
	}})
}

// ClearRecruiter resets the collaboration only if expected is still the recruiter.
func (s *Store) ClearRecruiter(ctx context.Context, projectID, expected primitive.ObjectID) (bool, error) {
	return s.updateOne(ctx, bson.M{
		"_id":                               projectID,
		"recruiter_collaboration.recruiter": expected,
	}, bson.M{"$set": bson.M{
		"recruiter_collaboration": models.RecruiterCollaboration{Status: models.CollaborationNone},
	}})
}

// RestoreCollaboration overwrites the collaboration unconditionally. Used to
// undo ApproveRecruiter when a later step fails.
func (s *Store) RestoreCollaboration(ctx context.Context, projectID primitive.ObjectID, prev models.RecruiterCollaboration) error {
	_, err := s.updateOne(ctx, bson.M{"_id": projectID},
		bson.M{"$set": bson.M{"recruiter_collaboration": prev}})
	return err
}

// Update holds the owner-editable fields. Nil fields are left unchanged.
type Update struct {
	Title          *string
	Description    *string
	RequiredSkills []string
	Status         *models.ProjectStatus
	MaxMembers     *int
}

// Update applies upd. A new MaxMembers is only written while it is not below
// the current member count; matched=false means the project is gone or the
// team outgrew the requested size.
func (s *Store) Update(ctx context.Context, projectID primitive.ObjectID, upd Update) (bool, error) {
	filter := bson.M{"_id": projectID}
	set := bson.M{}
	if upd.Title != nil {
		title := normalize.Name(*upd.Title)
		set["title"] = title
		set["title_ci"] = text.Fold(title)
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.RequiredSkills != nil {
		set["required_skills"] = normalize.Tags(upd.RequiredSkills)
	}
	if upd.Status != nil {
		set["status"] = *upd.Status
	}
	if upd.MaxMembers != nil {
		set["max_members"] = *upd.MaxMembers
		filter["$expr"] = bson.M{"$lte": bson.A{bson.M{"$size": "$members"}, *upd.MaxMembers}}
	}
	return s.updateOne(ctx, filter, bson.M{"$set": set})
}

// Delete removes a project. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListFilter narrows List. Zero values mean "any".
type ListFilter struct {
	Status models.ProjectStatus
	Search string // case-insensitive title substring
}

// List returns a keyset page of projects ordered by title.
func (s *Store) List(ctx context.Context, f ListFilter, p paging.Params) (paging.Page[models.Project], error) {
	ks := p.Keyset()
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if q := text.Fold(f.Search); q != "" {
		filter["title_ci"] = bson.M{"$regex": regexp.QuoteMeta(q)}
	}
	if win := ks.KeysetWindow("title_ci"); win != nil {
		maps.Copy(filter, win)
	}
	find := options.Find()
	ks.ApplyToFind(find, "title_ci", p)

	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return paging.Page[models.Project]{}, err
	}
	defer cur.Close(ctx)

	var rows []models.Project
	if err := cur.All(ctx, &rows); err != nil {
		return paging.Page[models.Project]{}, err
	}
	return paging.Finish(rows, p,
		func(p models.Project) string { return p.TitleCI },
		func(p models.Project) primitive.ObjectID { return p.ID },
	), nil
}

// ListForUser returns every project where userID is the owner, a member,
// the supervisor, or the approved recruiter, newest first.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Project, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"owner": userID},
		bson.M{"members": userID},
		bson.M{"supervisor": userID},
		bson.M{
			"recruiter_collaboration.recruiter": userID,
			"recruiter_collaboration.status":    models.CollaborationApproved,
		},
	}}
	return s.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

// ListOwnedBy returns the ids of projects owned by userID.
func (s *Store) ListOwnedBy(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	rows, err := s.find(ctx, bson.M{"owner": userID}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, p := range rows {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// Titles maps project ids to titles. Missing projects are absent from the map.
func (s *Store) Titles(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	out := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(bson.M{"title": 1}))
	if err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p.Title
	}
	return out, nil
}

var refsProjection = bson.M{
	"_id": 1, "owner": 1, "members": 1, "supervisor": 1, "recruiter_collaboration": 1,
}

// ListAllRefs returns every project with only the reference fields loaded.
func (s *Store) ListAllRefs(ctx context.Context) ([]models.Project, error) {
	return s.find(ctx, bson.M{}, options.Find().SetProjection(refsProjection))
}

// ListRefsFor is ListAllRefs restricted to the projects that reference userID
// in any role.
func (s *Store) ListRefsFor(ctx context.Context, userID primitive.ObjectID) ([]models.Project, error) {
	return s.find(ctx, bson.M{"$or": bson.A{
		bson.M{"owner": userID},
		bson.M{"members": userID},
		bson.M{"supervisor": userID},
		bson.M{"recruiter_collaboration.recruiter": userID},
	}}, options.Find().SetProjection(refsProjection))
}

// DetachUser removes userID from projects it does not own: pulls it from
// members, clears it as supervisor, and resets a collaboration it holds.
func (s *Store) DetachUser(ctx context.Context, userID primitive.ObjectID) error {
	now := time.Now().UTC()
	if _, err := s.c.UpdateMany(ctx,
		bson.M{"members": userID},
		bson.M{"$pull": bson.M{"members": userID}, "$set": bson.M{"updated_at": now}},
	); err != nil {
		return err
	}
	if _, err := s.c.UpdateMany(ctx,
		bson.M{"supervisor": userID},
		bson.M{"$set": bson.M{"supervisor": nil, "updated_at": now}},
	); err != nil {
		return err
	}
	_, err := s.c.UpdateMany(ctx,
		bson.M{"recruiter_collaboration.recruiter": userID},
		bson.M{"$set": bson.M{
			"recruiter_collaboration": models.RecruiterCollaboration{Status: models.CollaborationNone},
			"updated_at":              now,
		}},
	)
	return err
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Project, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Project{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
