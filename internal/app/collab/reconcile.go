package collab

import (
	"context"
	"errors"
	"slices"

	userstore "github.com/dalemusser/fypcollab/internal/app/store/users"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ReconcileResult reports one back-reference reconcile pass.
type ReconcileResult struct {
	UsersChecked int
	UsersFixed   int
}

// ReconcileBackRefs recomputes every user's four project lists from the
// projects collection and rewrites the lists that drifted. Projects are the
// source of truth; a drift only appears after a crash between the project and
// user writes of a non-transactional mutation.
//
// The full scan only nominates users. Each nominee is re-read from both
// collections and rewritten with a compare-and-set, so a membership change
// that lands while the pass runs is never overwritten with stale lists.
func (s *Service) ReconcileBackRefs(ctx context.Context) (ReconcileResult, error) {
	var res ReconcileResult

	projects, err := s.projects.ListAllRefs(ctx)
	if err != nil {
		return res, err
	}
	want := wantRefs(projects)
	if s.afterScan != nil {
		s.afterScan()
	}

	have, err := s.users.ListBackRefs(ctx)
	if err != nil {
		return res, err
	}
	for _, h := range have {
		res.UsersChecked++
		if sameRefs(h, want.of(h.UserID)) {
			continue
		}
		fixed, err := s.repairBackRefs(ctx, h.UserID)
		if err != nil {
			return res, err
		}
		if fixed {
			res.UsersFixed++
			s.log.Warn("back-references repaired", zap.String("user_id", h.UserID.Hex()))
		}
	}
	return res, nil
}

// repairBackRefs rewrites one user's lists from a fresh read of the projects
// that reference it. It reports false when the lists were already right or
// changed underneath it; the next pass looks again.
func (s *Service) repairBackRefs(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	cur, err := s.users.GetBackRefs(ctx, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	projects, err := s.projects.ListRefsFor(ctx, userID)
	if err != nil {
		return false, err
	}
	next := wantRefs(projects).of(userID)
	if sameRefs(cur, next) {
		return false, nil
	}
	return s.users.SetBackRefs(ctx, cur, next)
}

type refIndex map[primitive.ObjectID]*userstore.BackRefs

func (w refIndex) of(uid primitive.ObjectID) userstore.BackRefs {
	if b, ok := w[uid]; ok {
		return *b
	}
	return userstore.BackRefs{UserID: uid}
}

func wantRefs(projects []models.Project) refIndex {
	want := refIndex{}
	get := func(uid primitive.ObjectID) *userstore.BackRefs {
		b, ok := want[uid]
		if !ok {
			b = &userstore.BackRefs{UserID: uid}
			want[uid] = b
		}
		return b
	}
	for _, p := range projects {
		owner := get(p.Owner)
		owner.OwnedProjects = append(owner.OwnedProjects, p.ID)
		for _, m := range p.Members {
			b := get(m)
			b.EnrolledProjects = append(b.EnrolledProjects, p.ID)
		}
		if p.Supervisor != nil {
			b := get(*p.Supervisor)
			b.SupervisedProjects = append(b.SupervisedProjects, p.ID)
		}
		if p.HasApprovedRecruiter() {
			b := get(*p.Recruiter.Recruiter)
			b.CollaboratingProjects = append(b.CollaboratingProjects, p.ID)
		}
	}
	return want
}

func sameRefs(a, b userstore.BackRefs) bool {
	return sameSet(a.OwnedProjects, b.OwnedProjects) &&
		sameSet(a.EnrolledProjects, b.EnrolledProjects) &&
		sameSet(a.SupervisedProjects, b.SupervisedProjects) &&
		sameSet(a.CollaboratingProjects, b.CollaboratingProjects)
}

// sameSet compares ids ignoring order and duplicates.
func sameSet(a, b []primitive.ObjectID) bool {
	norm := func(ids []primitive.ObjectID) []string {
		out := make([]string, 0, len(ids))
		for _, id := range ids {
			out = append(out, id.Hex())
		}
		slices.Sort(out)
		return slices.Compact(out)
	}
	return slices.Equal(norm(a), norm(b))
}
