package examflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/tutor-portal/internal/model"
)

type fakeQuestions struct {
	questions []model.Question
	err       error
}

func (f *fakeQuestions) Questions(_ context.Context, _ ExamRef) ([]model.Question, error) {
	return f.questions, f.err
}

type fakeSubmissions struct {
	records   map[string]model.SubmissionRecord
	creates   int
	getErr    error
	createErr error
}

func newFakeSubmissions() *fakeSubmissions {
	return &fakeSubmissions{records: make(map[string]model.SubmissionRecord)}
}

func (f *fakeSubmissions) GetSubmission(_ context.Context, _ ExamRef, studentID string) (*model.SubmissionRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.records[studentID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (f *fakeSubmissions) CreateSubmission(_ context.Context, _ ExamRef, rec model.SubmissionRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.records[rec.ID]; ok {
		return ErrAlreadySubmitted
	}
	f.creates++
	f.records[rec.ID] = rec
	return nil
}

type failingStore struct{ err error }

func (s failingStore) Get(context.Context, string) (string, bool, error) { return "", false, s.err }
func (s failingStore) Set(context.Context, string, string) error         { return s.err }
func (s failingStore) Update(context.Context, string, func(string) (string, error)) error {
	return s.err
}

var (
	testExam    = ExamRef{AdminID: "a1", GroupID: "g1", ExamID: "e1"}
	testStudent = Student{ID: "s1", FullName: "Aziza Karimova"}
	testNow     = time.UnixMilli(1714555800000)
)

func questions(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			ID:      string(rune('a' + i)),
			Title:   "Question",
			Answers: []string{"one", "two", "three", "four"},
		}
	}
	return qs
}

func newTestFlow(src QuestionSource, subs SubmissionStore, local LocalStore) *Flow {
	return New(testExam, testStudent, src, subs, local, WithClock(func() time.Time { return testNow }))
}

func loadedFlow(t *testing.T, n int, subs *fakeSubmissions, local LocalStore) *Flow {
	t.Helper()
	f := newTestFlow(&fakeQuestions{questions: questions(n)}, subs, local)
	_, err := f.Load(context.Background())
	require.NoError(t, err)
	return f
}

func TestLoadStartsEmpty(t *testing.T) {
	f := loadedFlow(t, 3, newFakeSubmissions(), newMemoryStore())

	assert.Equal(t, []string{"", "", ""}, f.Answers())
	assert.Equal(t, StateLoaded, f.State())
	assert.False(t, f.Submitted())
}

func TestLoadFetchError(t *testing.T) {
	boom := errors.New("unavailable")
	f := newTestFlow(&fakeQuestions{err: boom}, newFakeSubmissions(), newMemoryStore())

	_, err := f.Load(context.Background())

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateNotLoaded, f.State())
}

func TestLoadEmptyExam(t *testing.T) {
	f := newTestFlow(&fakeQuestions{}, newFakeSubmissions(), newMemoryStore())

	qs, err := f.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, qs)
	assert.Empty(t, qs)

	_, err = f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNoQuestions)
}

func TestSelectAnswerPersistsAndReloads(t *testing.T) {
	ctx := context.Background()
	local := newMemoryStore()
	subs := newFakeSubmissions()

	f := loadedFlow(t, 4, subs, local)
	require.NoError(t, f.SelectAnswer(ctx, 0, "B"))
	require.NoError(t, f.SelectAnswer(ctx, 2, "D"))
	assert.Equal(t, StateAnswering, f.State())

	raw, ok, err := local.Get(ctx, "exam-e1-answers")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `["B","","D",""]`, raw)

	reloaded := loadedFlow(t, 4, subs, local)
	assert.Equal(t, []string{"B", "", "D", ""}, reloaded.Answers())
}

func TestSelectAnswerKeepsSelectionsFromOtherRequests(t *testing.T) {
	ctx := context.Background()
	local := newMemoryStore()
	subs := newFakeSubmissions()

	first := loadedFlow(t, 3, subs, local)
	second := loadedFlow(t, 3, subs, local)
	require.NoError(t, first.SelectAnswer(ctx, 0, "A"))
	require.NoError(t, second.SelectAnswer(ctx, 1, "B"))
	assert.Equal(t, []string{"A", "B", ""}, second.Answers())

	reloaded := loadedFlow(t, 3, subs, local)
	assert.Equal(t, []string{"A", "B", ""}, reloaded.Answers())
}

func TestSelectAnswerConcurrentRequests(t *testing.T) {
	ctx := context.Background()
	local := newMemoryStore()
	subs := newFakeSubmissions()
	const n = 8

	flows := make([]*Flow, n)
	for i := range flows {
		flows[i] = loadedFlow(t, n, subs, local)
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i, f := range flows {
		wg.Add(1)
		go func(i int, f *Flow) {
			defer wg.Done()
			errs <- f.SelectAnswer(ctx, i, model.Options[i%len(model.Options)])
		}(i, f)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	reloaded := loadedFlow(t, n, subs, local)
	assert.Empty(t, reloaded.Unanswered())
	assert.Equal(t, StateComplete, reloaded.State())
}

func TestLoadAlignsSavedAnswersToQuestionCount(t *testing.T) {
	ctx := context.Background()
	local := newMemoryStore()
	require.NoError(t, local.Set(ctx, "exam-e1-answers", `["A","B","C"]`))

	f := loadedFlow(t, 2, newFakeSubmissions(), local)
	assert.Equal(t, []string{"A", "B"}, f.Answers())

	require.NoError(t, local.Set(ctx, "exam-e1-answers", `["A",null,"Z"]`))
	f = loadedFlow(t, 4, newFakeSubmissions(), local)
	assert.Equal(t, []string{"A", "", "", ""}, f.Answers())

	require.NoError(t, local.Set(ctx, "exam-e1-answers", `not json`))
	f = loadedFlow(t, 2, newFakeSubmissions(), local)
	assert.Equal(t, []string{"", ""}, f.Answers())
}

func TestSelectAnswerValidation(t *testing.T) {
	ctx := context.Background()
	qs := questions(2)
	qs[1].Answers = []string{"yes", "no"}
	f := newTestFlow(&fakeQuestions{questions: qs}, newFakeSubmissions(), newMemoryStore())

	assert.ErrorIs(t, f.SelectAnswer(ctx, 0, "A"), ErrNotLoaded)

	_, err := f.Load(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, f.SelectAnswer(ctx, -1, "A"), ErrQuestionIndex)
	assert.ErrorIs(t, f.SelectAnswer(ctx, 2, "A"), ErrQuestionIndex)
	assert.ErrorIs(t, f.SelectAnswer(ctx, 0, "E"), ErrInvalidOption)
	assert.ErrorIs(t, f.SelectAnswer(ctx, 0, ""), ErrInvalidOption)
	assert.ErrorIs(t, f.SelectAnswer(ctx, 1, "C"), ErrInvalidOption)
	assert.NoError(t, f.SelectAnswer(ctx, 1, "B"))
}

func TestSelectAnswerStoreFailureKeepsPreviousValue(t *testing.T) {
	ctx := context.Background()
	f := loadedFlow(t, 1, newFakeSubmissions(), newMemoryStore())
	f.local = failingStore{err: errors.New("redis down")}

	err := f.SelectAnswer(ctx, 0, "A")

	assert.Error(t, err)
	assert.Equal(t, []string{""}, f.Answers())
}

func TestSubmitRequiresEveryAnswer(t *testing.T) {
	ctx := context.Background()
	subs := newFakeSubmissions()
	f := loadedFlow(t, 3, subs, newMemoryStore())
	require.NoError(t, f.SelectAnswer(ctx, 1, "A"))

	_, err := f.Submit(ctx)

	var ie *IncompleteError
	require.ErrorAs(t, err, &ie)
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Equal(t, []int{0, 2}, ie.Unanswered)
	assert.Zero(t, subs.creates)
	assert.False(t, f.Submitted())
}

func TestSubmitSingleQuestion(t *testing.T) {
	ctx := context.Background()
	local := newMemoryStore()
	subs := newFakeSubmissions()
	f := loadedFlow(t, 1, subs, local)

	require.NoError(t, f.SelectAnswer(ctx, 0, "C"))
	assert.Equal(t, StateComplete, f.State())

	rec, err := f.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionRecord{
		ID:        "s1",
		FullName:  "Aziza Karimova",
		Answers:   []string{"C"},
		Timestamp: model.NewTimestamp(testNow),
	}, *rec)
	assert.Equal(t, 1, subs.creates)
	assert.Equal(t, StateSubmitted, f.State())

	flag, _, _ := local.Get(ctx, "exam-e1-submitted")
	assert.Equal(t, "true", flag)

	_, err = f.Submit(ctx)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Equal(t, 1, subs.creates)
}

func TestSelectAnswerAfterSubmitIsNoop(t *testing.T) {
	ctx := context.Background()
	local := newMemoryStore()
	subs := newFakeSubmissions()
	f := loadedFlow(t, 1, subs, local)
	require.NoError(t, f.SelectAnswer(ctx, 0, "A"))
	_, err := f.Submit(ctx)
	require.NoError(t, err)

	assert.NoError(t, f.SelectAnswer(ctx, 0, "B"))
	assert.Equal(t, []string{"A"}, f.Answers())

	reloaded := loadedFlow(t, 1, subs, local)
	assert.True(t, reloaded.Submitted())
	assert.NoError(t, reloaded.SelectAnswer(ctx, 0, "B"))
	assert.Equal(t, []string{"A"}, reloaded.Answers())
}

func TestClearedLocalStoreDoesNotReopenExam(t *testing.T) {
	ctx := context.Background()
	local := newMemoryStore()
	subs := newFakeSubmissions()
	f := loadedFlow(t, 2, subs, local)
	require.NoError(t, f.SelectAnswer(ctx, 0, "A"))
	require.NoError(t, f.SelectAnswer(ctx, 1, "B"))
	_, err := f.Submit(ctx)
	require.NoError(t, err)

	local.clear()

	reloaded := loadedFlow(t, 2, subs, local)
	assert.Equal(t, StateSubmitted, reloaded.State())
	assert.Equal(t, []string{"A", "B"}, reloaded.Answers())
	_, err = reloaded.Submit(ctx)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Equal(t, 1, subs.creates)
}

func TestSubmitRejectsRecordCreatedElsewhere(t *testing.T) {
	ctx := context.Background()
	subs := newFakeSubmissions()
	f := loadedFlow(t, 1, subs, newMemoryStore())
	require.NoError(t, f.SelectAnswer(ctx, 0, "D"))

	subs.records["s1"] = model.SubmissionRecord{ID: "s1", Answers: []string{"A"}}

	_, err := f.Submit(ctx)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.True(t, f.Submitted())
	assert.Equal(t, "A", subs.records["s1"].Answers[0])
}

func TestSubmitBackendFailureLeavesFlowOpen(t *testing.T) {
	ctx := context.Background()
	subs := newFakeSubmissions()
	f := loadedFlow(t, 1, subs, newMemoryStore())
	require.NoError(t, f.SelectAnswer(ctx, 0, "A"))

	subs.createErr = errors.New("write failed")
	_, err := f.Submit(ctx)

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrIncomplete)
	assert.False(t, f.Submitted())
	assert.Equal(t, StateComplete, f.State())
}

func TestSubmitBeforeLoad(t *testing.T) {
	f := newTestFlow(&fakeQuestions{}, newFakeSubmissions(), newMemoryStore())
	_, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNotLoaded)
}
