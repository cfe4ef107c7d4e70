package course

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrWizardNotFound = errors.New("course wizard not found")
	ErrSubmitting     = errors.New("course is already being submitted")
)

// MaxOpenWizards is how many wizards an instructor may keep open. Starting one more closes the oldest.
const MaxOpenWizards = 5

// Steps of the course authoring wizard, in order.
var Steps = []string{
	"Basic Information",
	"Course Content",
	"Pricing & Settings",
	"Review & Submit",
}

// Wizard is one in-progress course authoring session.
type Wizard struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"-"`
	Step       int       `json:"step"`
	StepName   string    `json:"stepName"`
	Steps      []string  `json:"steps"`
	Course     Course    `json:"course"`
	Submitting bool      `json:"submitting"`
	CreatedAt  time.Time `json:"createdAt"` // UTC

	seq uint64
}

func (w Wizard) copy() Wizard {
	w.Course = w.Course.Copy()
	w.StepName = Steps[w.Step]
	w.Steps = Steps
	return w
}

func newLesson() Lesson {
	return Lesson{ID: uuid.NewString()}
}

// LessonUpdate holds the partial fields of a wizard lesson. Nil fields are left untouched.
type LessonUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Duration    *string `json:"duration"`
	VideoURL    *string `json:"videoUrl"`
}

func (lu LessonUpdate) apply(l *Lesson) {
	for dst, src := range map[*string]*string{
		&l.Title:       lu.Title,
		&l.Description: lu.Description,
		&l.Duration:    lu.Duration,
		&l.VideoURL:    lu.VideoURL,
	} {
		if src != nil {
			*dst = *src
		}
	}
}

// Wizards keeps the authoring wizards of every instructor in memory.
type Wizards struct {
	svc         *Service
	submitDelay time.Duration
	draftDelay  time.Duration

	mu      sync.Mutex
	seq     uint64
	wizards map[string]*Wizard
}

// NewWizards returns an empty registry. Submitted courses are stored through svc after the given delays.
func NewWizards(svc *Service, submitDelay, draftDelay time.Duration) *Wizards {
	return &Wizards{
		svc:         svc,
		submitDelay: submitDelay,
		draftDelay:  draftDelay,
		wizards:     make(map[string]*Wizard),
	}
}

// Start opens a wizard on a blank draft for owner.
func (ws *Wizards) Start(owner user.User) Wizard {
	w := &Wizard{
		ID:      uuid.NewString(),
		OwnerID: owner.ID,
		Course: Course{
			Language: DefaultLanguage,
			Image:    DefaultImage,
			Status:   StatusDraft,
			Lessons:  []Lesson{newLesson()},
		},
		CreatedAt: time.Now().UTC(),
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.evict(owner.ID)
	ws.seq++
	w.seq = ws.seq
	ws.wizards[w.ID] = w
	return w.copy()
}

// evict closes the oldest idle wizards of ownerID until one more fits. It must be called with ws.mu held.
func (ws *Wizards) evict(ownerID string) {
	for {
		var open int
		var oldest *Wizard
		for _, w := range ws.wizards {
			if w.OwnerID != ownerID || w.Submitting {
				continue
			}
			open++
			if oldest == nil || w.seq < oldest.seq {
				oldest = w
			}
		}
		if open < MaxOpenWizards || oldest == nil {
			return
		}
		delete(ws.wizards, oldest.ID)
	}
}

// get must be called with ws.mu held. Wizards of other instructors are reported missing.
func (ws *Wizards) get(id, ownerID string) (*Wizard, error) {
	w, ok := ws.wizards[id]
	if !ok || w.OwnerID != ownerID {
		return nil, ErrWizardNotFound
	}
	return w, nil
}

// mutate applies fn to the wizard under lock and returns a copy of the result.
func (ws *Wizards) mutate(id, ownerID string, fn func(w *Wizard) error) (Wizard, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	w, err := ws.get(id, ownerID)
	if err != nil {
		return Wizard{}, err
	}
	if fn != nil {
		if w.Submitting {
			return Wizard{}, ErrSubmitting
		}
		if err := fn(w); err != nil {
			return Wizard{}, err
		}
	}
	return w.copy(), nil
}

func (ws *Wizards) Get(id, ownerID string) (Wizard, error) {
	return ws.mutate(id, ownerID, nil)
}

// Next moves to the following step, staying on the last one.
func (ws *Wizards) Next(id, ownerID string) (Wizard, error) {
	return ws.mutate(id, ownerID, func(w *Wizard) error {
		if w.Step < len(Steps)-1 {
			w.Step++
		}
		return nil
	})
}

// Prev moves to the preceding step, staying on the first one.
func (ws *Wizards) Prev(id, ownerID string) (Wizard, error) {
	return ws.mutate(id, ownerID, func(w *Wizard) error {
		if w.Step > 0 {
			w.Step--
		}
		return nil
	})
}

// Update merges up into the draft. Nothing is validated until Submit.
func (ws *Wizards) Update(id, ownerID string, up Update) (Wizard, error) {
	return ws.mutate(id, ownerID, func(w *Wizard) error {
		up.apply(&w.Course)
		if len(w.Course.Lessons) == 0 {
			w.Course.Lessons = []Lesson{newLesson()}
		}
		for i := range w.Course.Lessons {
			if w.Course.Lessons[i].ID == "" {
				w.Course.Lessons[i].ID = uuid.NewString()
			}
		}
		return nil
	})
}

// AddLesson appends an empty lesson.
func (ws *Wizards) AddLesson(id, ownerID string) (Wizard, error) {
	return ws.mutate(id, ownerID, func(w *Wizard) error {
		w.Course.Lessons = append(w.Course.Lessons, newLesson())
		return nil
	})
}

// UpdateLesson merges lu into the lesson at index.
func (ws *Wizards) UpdateLesson(id, ownerID string, index int, lu LessonUpdate) (Wizard, error) {
	return ws.mutate(id, ownerID, func(w *Wizard) error {
		if index < 0 || index >= len(w.Course.Lessons) {
			return ErrLessonNotFound
		}
		lu.apply(&w.Course.Lessons[index])
		return nil
	})
}

// RemoveLesson drops the lesson at index. The last remaining lesson is kept and out of range indexes are ignored.
func (ws *Wizards) RemoveLesson(id, ownerID string, index int) (Wizard, error) {
	return ws.mutate(id, ownerID, func(w *Wizard) error {
		lessons := w.Course.Lessons
		if len(lessons) <= 1 || index < 0 || index >= len(lessons) {
			return nil
		}
		w.Course.Lessons = append(lessons[:index:index], lessons[index+1:]...)
		return nil
	})
}

// Submit validates the draft, then stores it as a new course of owner once the submit delay elapsed.
func (ws *Wizards) Submit(ctx context.Context, id string, owner user.User) (Course, error) {
	return ws.finish(ctx, id, owner, true)
}

// SaveDraft stores the draft as a new course of owner with status draft, without validating it.
func (ws *Wizards) SaveDraft(ctx context.Context, id string, owner user.User) (Course, error) {
	return ws.finish(ctx, id, owner, false)
}

func (ws *Wizards) finish(ctx context.Context, id string, owner user.User, submit bool) (Course, error) {
	ws.mu.Lock()
	w, err := ws.get(id, owner.ID)
	if err != nil {
		ws.mu.Unlock()
		return Course{}, err
	}
	if w.Submitting {
		ws.mu.Unlock()
		return Course{}, ErrSubmitting
	}

	crs := w.Course.Copy()
	delay := ws.submitDelay
	if submit {
		if err := ws.svc.validate.Struct(crs); err != nil {
			ws.mu.Unlock()
			return Course{}, err
		}
	} else {
		crs.Status = StatusDraft
		delay = ws.draftDelay
	}
	w.Submitting = true
	ws.mu.Unlock()

	done := func() {
		ws.mu.Lock()
		defer ws.mu.Unlock()
		w.Submitting = false
	}

	if err := sleep(ctx, delay); err != nil {
		done()
		return Course{}, errors.Wrap(err, "waiting for submission")
	}
	crs, err = ws.svc.create(ctx, crs, owner)
	if err != nil {
		done()
		return Course{}, err
	}

	ws.mu.Lock()
	delete(ws.wizards, id)
	ws.mu.Unlock()
	return crs, nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
