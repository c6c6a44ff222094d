package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/tutor-portal/internal/docstore"
	"github.com/stemsi/tutor-portal/internal/model"
	"github.com/stemsi/tutor-portal/internal/repository"
)

// SessionSource reads and watches documents. *docstore.Store implements it.
type SessionSource interface {
	Get(ctx context.Context, path string) (*docstore.Document, error)
	Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error)
	Watch(ctx context.Context, q docstore.Query) (<-chan docstore.Snapshot, error)
	WatchDoc(ctx context.Context, path string) (<-chan docstore.DocSnapshot, error)
}

// SignOutWatcher reports when a session signs out. *AuthService implements it.
type SignOutWatcher interface {
	WatchSignOut(ctx context.Context, jti string) (<-chan struct{}, error)
}

// SessionService builds the signed-in student's Session: profile first,
// then everything scoped to the owner named by the profile's adminId.
type SessionService struct {
	docs    SessionSource
	signOut SignOutWatcher
	log     zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(docs SessionSource, signOut SignOutWatcher, log zerolog.Logger) *SessionService {
	return &SessionService{
		docs:    docs,
		signOut: signOut,
		log:     log.With().Str("component", "session_service").Logger(),
	}
}

// Snapshot resolves the session once. A missing profile is not an error:
// the session stays Loading with empty collections.
func (s *SessionService) Snapshot(ctx context.Context, account *model.Account) (*model.Session, error) {
	sess := model.NewSession(account)

	d, err := s.docs.Get(ctx, repository.ProfilePath(account.UID))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return sess, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if err := applyProfile(sess, d); err != nil {
		return nil, err
	}
	if sess.AdminID == "" {
		return sess, nil
	}

	owner, uid := sess.AdminID, account.UID
	if err := queryInto(ctx, s.docs, repository.GroupsOfStudentQuery(owner, uid), &sess.Groups); err != nil {
		return nil, err
	}
	if err := queryInto(ctx, s.docs, repository.CoursesQuery(owner), &sess.Courses); err != nil {
		return nil, err
	}
	if err := queryInto(ctx, s.docs, repository.TeachersQuery(owner), &sess.Teachers); err != nil {
		return nil, err
	}
	if err := queryInto(ctx, s.docs, repository.RosterQuery(owner), &sess.Roster); err != nil {
		return nil, err
	}
	return sess, nil
}

// Observe streams the session for account as it changes. Each value is a
// private copy. The stream ends, and every subscription it opened is torn
// down, when ctx is done or the session jti signs out.
func (s *SessionService) Observe(ctx context.Context, account *model.Account, jti string) (<-chan *model.Session, error) {
	ctx, cancel := context.WithCancel(ctx)

	signedOut, err := s.signOut.WatchSignOut(ctx, jti)
	if err != nil {
		cancel()
		return nil, err
	}
	profiles, err := s.docs.WatchDoc(ctx, repository.ProfilePath(account.UID))
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan *model.Session, 1)
	o := &sessionObserver{
		docs:    s.docs,
		account: account,
		sess:    model.NewSession(account),
		out:     out,
		log:     s.log.With().Str("uid", account.UID).Logger(),
	}
	go func() {
		defer close(out)
		defer cancel()
		o.run(ctx, profiles, signedOut)
	}()
	return out, nil
}

type sessionObserver struct {
	docs    SessionSource
	account *model.Account
	sess    *model.Session
	out     chan<- *model.Session
	log     zerolog.Logger

	stopOwner func()
	groups    <-chan docstore.Snapshot
	courses   <-chan docstore.Snapshot
	teachers  <-chan docstore.Snapshot
	roster    <-chan docstore.Snapshot
}

func (o *sessionObserver) run(ctx context.Context, profiles <-chan docstore.DocSnapshot, signedOut <-chan struct{}) {
	defer o.detach()

	if !o.emit(ctx) {
		return
	}

	for {
		var err error
		select {
		case <-ctx.Done():
			return

		case <-signedOut:
			o.log.Debug().Msg("Session signed out, closing stream")
			return

		case snap, ok := <-profiles:
			if !ok {
				return
			}
			if snap.Err != nil {
				o.log.Warn().Err(snap.Err).Msg("Profile watch error")
				continue
			}
			o.onProfile(ctx, snap.Doc)

		case snap, ok := <-o.groups:
			if !ok {
				o.groups = nil
				continue
			}
			err = applySnapshot(snap, &o.sess.Groups)

		case snap, ok := <-o.courses:
			if !ok {
				o.courses = nil
				continue
			}
			err = applySnapshot(snap, &o.sess.Courses)

		case snap, ok := <-o.teachers:
			if !ok {
				o.teachers = nil
				continue
			}
			err = applySnapshot(snap, &o.sess.Teachers)

		case snap, ok := <-o.roster:
			if !ok {
				o.roster = nil
				continue
			}
			err = applySnapshot(snap, &o.sess.Roster)
		}

		if err != nil {
			o.log.Warn().Err(err).Msg("Session collection watch error")
			continue
		}
		if !o.emit(ctx) {
			return
		}
	}
}

// onProfile applies a profile state and, when the owner changes, replaces
// the owner-scoped watches.
func (o *sessionObserver) onProfile(ctx context.Context, d *docstore.Document) {
	prev := o.sess.AdminID
	if d == nil {
		o.sess.Profile = nil
		o.sess.AdminID = ""
		o.sess.Loading = true
	} else if err := applyProfile(o.sess, d); err != nil {
		o.log.Warn().Err(err).Msg("Profile decode error")
		return
	}

	owner := o.sess.AdminID
	if owner == prev {
		return
	}
	o.detach()
	o.sess.Groups = []model.Group{}
	o.sess.Courses = []model.Course{}
	o.sess.Teachers = []model.Teacher{}
	o.sess.Roster = []model.StudentProfile{}
	if owner != "" {
		o.attach(ctx, owner)
	}
}

func (o *sessionObserver) attach(ctx context.Context, owner string) {
	ownerCtx, cancel := context.WithCancel(ctx)
	o.stopOwner = cancel

	watch := func(q docstore.Query) <-chan docstore.Snapshot {
		ch, err := o.docs.Watch(ownerCtx, q)
		if err != nil {
			o.log.Warn().Err(err).Str("collection", q.Collection).Msg("Watch failed")
			return nil
		}
		return ch
	}
	o.groups = watch(repository.GroupsOfStudentQuery(owner, o.account.UID))
	o.courses = watch(repository.CoursesQuery(owner))
	o.teachers = watch(repository.TeachersQuery(owner))
	o.roster = watch(repository.RosterQuery(owner))
}

func (o *sessionObserver) detach() {
	if o.stopOwner != nil {
		o.stopOwner()
		o.stopOwner = nil
	}
	o.groups, o.courses, o.teachers, o.roster = nil, nil, nil, nil
}

func (o *sessionObserver) emit(ctx context.Context) bool {
	select {
	case o.out <- o.sess.Clone():
		return true
	case <-ctx.Done():
		return false
	}
}

func applyProfile(sess *model.Session, d *docstore.Document) error {
	p, err := docstore.Decode[model.StudentProfile](*d)
	if err != nil {
		return err
	}
	sess.Profile = &p
	sess.AdminID = p.AdminID
	sess.Loading = false
	return nil
}

func applySnapshot[T any, PT docstore.Identifiable[T]](snap docstore.Snapshot, dst *[]T) error {
	if snap.Err != nil {
		return snap.Err
	}
	items, err := docstore.DecodeAll[T, PT](snap.Docs)
	if err != nil {
		return err
	}
	*dst = items
	return nil
}

func queryInto[T any, PT docstore.Identifiable[T]](ctx context.Context, docs SessionSource, q docstore.Query, dst *[]T) error {
	found, err := docs.Query(ctx, q)
	if err != nil {
		return fmt.Errorf("query %s: %w", q.Collection, err)
	}
	items, err := docstore.DecodeAll[T, PT](found)
	if err != nil {
		return err
	}
	*dst = items
	return nil
}
