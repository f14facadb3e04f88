// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"maps"
	"regexp"
	"time"

	"github.com/dalemusser/fypcollab/internal/app/system/normalize"
	"github.com/dalemusser/fypcollab/internal/app/system/paging"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BackRef names one of the four project back-reference lists on a user.
type BackRef string

const (
	OwnedProjects         BackRef = "owned_projects"
	EnrolledProjects      BackRef = "enrolled_projects"
	SupervisedProjects    BackRef = "supervised_projects"
	CollaboratingProjects BackRef = "collaborating_projects"
)

// AllBackRefs lists every back-reference field.
var AllBackRefs = []BackRef{OwnedProjects, EnrolledProjects, SupervisedProjects, CollaboratingProjects}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "student"|"supervisor"|"recruiter"|"admin"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user after normalizing fields. The profile matching
// the role is initialized and the back-reference lists start empty.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	if !u.Role.Valid() {
		return models.User{}, errBadRole
	}

	u.ID = primitive.NewObjectID()
	u.Name = normalize.Name(u.Name)
	u.NameCI = text.Fold(u.Name)
	u.Email = normalize.Email(u.Email)

	u.Student, u.Supervisor, u.Recruiter = nil, nil, nil
	switch u.Role {
	case models.RoleStudent:
		u.Student = &models.StudentProfile{Skills: []string{}}
	case models.RoleSupervisor:
		u.Supervisor = &models.SupervisorProfile{Expertise: []string{}}
	case models.RoleRecruiter:
		u.Recruiter = &models.RecruiterProfile{InterestedTechnologies: []string{}}
	}
	u.OwnedProjects = []primitive.ObjectID{}
	u.EnrolledProjects = []primitive.ObjectID{}
	u.SupervisedProjects = []primitive.ObjectID{}
	u.CollaboratingProjects = []primitive.ObjectID{}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// Summaries resolves ids to public summaries. Missing ids are absent from the map.
func (s *Store) Summaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserSummary, error) {
	out := make(map[primitive.ObjectID]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	proj := options.Find().SetProjection(bson.M{"_id": 1, "name": 1, "email": 1, "role": 1})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, proj)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var sum models.UserSummary
		if err := cur.Decode(&sum); err != nil {
			return nil, err
		}
		out[sum.ID] = sum
	}
	return out, cur.Err()
}

// Search finds users whose name contains q (case-insensitive), excluding one user.
func (s *Store) Search(ctx context.Context, q string, exclude primitive.ObjectID, limit int64) ([]models.UserSummary, error) {
	filter := bson.M{"_id": bson.M{"$ne": exclude}}
	if folded := text.Fold(q); folded != "" {
		filter["name_ci"] = bson.M{"$regex": regexp.QuoteMeta(folded)}
	}
	opts := options.Find().
		SetProjection(bson.M{"_id": 1, "name": 1, "email": 1, "role": 1}).
		SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.UserSummary{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByRole returns every user with the given role, sorted by name.
func (s *Store) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"role": role}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns a keyset page of users ordered by name, optionally filtered by role.
func (s *Store) List(ctx context.Context, role models.Role, p paging.Params) (paging.Page[models.User], error) {
	ks := p.Keyset()
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}
	if win := ks.KeysetWindow("name_ci"); win != nil {
		maps.Copy(filter, win)
	}
	find := options.Find()
	ks.ApplyToFind(find, "name_ci", p)

	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return paging.Page[models.User]{}, err
	}
	defer cur.Close(ctx)

	var rows []models.User
	if err := cur.All(ctx, &rows); err != nil {
		return paging.Page[models.User]{}, err
	}
	return paging.Finish(rows, p,
		func(u models.User) string { return u.NameCI },
		func(u models.User) primitive.ObjectID { return u.ID },
	), nil
}

// CountByRole counts users with the given role.
func (s *Store) CountByRole(ctx context.Context, role models.Role) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"role": role})
}

// ProfileUpdate carries the role-scoped profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	Skills                 []string
	Expertise              []string
	Company                *string
	InterestedTechnologies []string
}

// UpdateProfile writes only the profile fields that belong to role and
// returns the updated user. Returns mongo.ErrNoDocuments if the user is gone.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, role models.Role, upd ProfileUpdate) (*models.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	switch role {
	case models.RoleStudent:
		if upd.Skills != nil {
			set["student.skills"] = normalize.Tags(upd.Skills)
		}
	case models.RoleSupervisor:
		if upd.Expertise != nil {
			set["supervisor.expertise"] = normalize.Tags(upd.Expertise)
		}
	case models.RoleRecruiter:
		if upd.Company != nil {
			set["recruiter.company"] = normalize.Name(*upd.Company)
		}
		if upd.InterestedTechnologies != nil {
			set["recruiter.interested_technologies"] = normalize.Tags(upd.InterestedTechnologies)
		}
	}

	var u models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "role": role},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// AddProjectRef adds projectID to one back-reference list. Adding twice is a no-op.
func (s *Store) AddProjectRef(ctx context.Context, userID primitive.ObjectID, ref BackRef, projectID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, userID, bson.M{
		"$addToSet": bson.M{string(ref): projectID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// PullProjectRef removes projectID from one back-reference list.
func (s *Store) PullProjectRef(ctx context.Context, userID primitive.ObjectID, ref BackRef, projectID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, userID, bson.M{
		"$pull": bson.M{string(ref): projectID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// PullProjectEverywhere removes projectID from every user's four lists and
// returns the number of users touched.
func (s *Store) PullProjectEverywhere(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	or := bson.A{}
	pull := bson.M{}
	for _, ref := range AllBackRefs {
		or = append(or, bson.M{string(ref): projectID})
		pull[string(ref)] = projectID
	}
	res, err := s.c.UpdateMany(ctx, bson.M{"$or": or}, bson.M{
		"$pull": pull,
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Delete removes a user. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// BackRefs is the back-reference state of one user.
type BackRefs struct {
	UserID                primitive.ObjectID   `bson:"_id"`
	OwnedProjects         []primitive.ObjectID `bson:"owned_projects"`
	EnrolledProjects      []primitive.ObjectID `bson:"enrolled_projects"`
	SupervisedProjects    []primitive.ObjectID `bson:"supervised_projects"`
	CollaboratingProjects []primitive.ObjectID `bson:"collaborating_projects"`
}

// ListBackRefs returns the stored back-reference lists of every user.
func (s *Store) ListBackRefs(ctx context.Context) ([]BackRefs, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetProjection(backRefsProjection()))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []BackRefs
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetBackRefs returns the stored back-reference lists of one user.
func (s *Store) GetBackRefs(ctx context.Context, userID primitive.ObjectID) (BackRefs, error) {
	var b BackRefs
	err := s.c.FindOne(ctx, bson.M{"_id": userID}, options.FindOne().SetProjection(backRefsProjection())).Decode(&b)
	return b, err
}

// SetBackRefs overwrites a user's four back-reference lists with next, but
// only while they still hold exactly prev. It reports whether it wrote.
func (s *Store) SetBackRefs(ctx context.Context, prev, next BackRefs) (bool, error) {
	filter := bson.M{
		"_id":                         next.UserID,
		string(OwnedProjects):         sameList(prev.OwnedProjects),
		string(EnrolledProjects):      sameList(prev.EnrolledProjects),
		string(SupervisedProjects):    sameList(prev.SupervisedProjects),
		string(CollaboratingProjects): sameList(prev.CollaboratingProjects),
	}
	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		string(OwnedProjects):         nonNil(next.OwnedProjects),
		string(EnrolledProjects):      nonNil(next.EnrolledProjects),
		string(SupervisedProjects):    nonNil(next.SupervisedProjects),
		string(CollaboratingProjects): nonNil(next.CollaboratingProjects),
		"updated_at":                  time.Now().UTC(),
	}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// sameList matches a stored list equal to ids, element for element. An empty
// list also matches a missing field.
func sameList(ids []primitive.ObjectID) any {
	if len(ids) == 0 {
		return bson.M{"$in": bson.A{nil, bson.A{}}}
	}
	return ids
}

func backRefsProjection() bson.M {
	proj := bson.M{"_id": 1}
	for _, ref := range AllBackRefs {
		proj[string(ref)] = 1
	}
	return proj
}

func nonNil(ids []primitive.ObjectID) []primitive.ObjectID {
	if ids == nil {
		return []primitive.ObjectID{}
	}
	return ids
}
