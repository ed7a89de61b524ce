// Package orchestrator implements the Generation Orchestrator (C9): the
// state machine that drives one course from CREATING to FINISHED or
// FAILED, coordinating the Agent Runtime, Retrieval, State, and
// Persistence components.
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"coursesynth.app/api/internal/agent"
	"coursesynth.app/api/internal/ledger"
	"coursesynth.app/api/internal/model"
	"coursesynth.app/api/internal/retrieval"
	"coursesynth.app/api/internal/state"
	"coursesynth.app/api/internal/store"
	"coursesynth.app/api/internal/validator"
)

// ErrQuotaExceeded is returned by the quota gate before any task is
// scheduled.
var ErrQuotaExceeded = fmt.Errorf("quota exceeded")

// QuotaConfig bounds how many courses a user may create in total and how
// many may be live (non-terminal) at once.
type QuotaConfig struct {
	MaxCourseCreations int
	MaxPresentCourses  int
}

// Agents groups every LLM-backed call the Orchestrator drives. Each field
// is a thin wrapper over internal/agent's flavors, bound to a specific
// system prompt and output schema by cmd/server's wiring.
type Agents struct {
	Info      *agent.StructuredAgent // -> InfoResult
	Image     *agent.StandardAgent   // -> raw URL text, post-processed
	Planner   *agent.StructuredAgent // -> PlannerResult
	Explainer *agent.StandardAgent   // -> component source, code-review looped
	Tester    *agent.StructuredAgent // -> TesterResult, then per-question repair
	Grader    *agent.StructuredAgent // -> GraderResult
}

type InfoResult struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type PlannerResult struct {
	Chapters []model.ChapterPlan `json:"chapters"`
}

type TesterResult struct {
	Questions []model.GeneratedQuestion `json:"questions"`
}

type GraderResult struct {
	Points      int    `json:"points"`
	Explanation string `json:"explanation"`
}

const (
	fallbackImageURL         = "https://placehold.co/800x450?text=Course"
	explainerRepairIterations = 5
	testerRepairIterations    = 2
	fallbackComponentSource   = "() => { return null }"
	stuckCreatingMinutes      = 120
)

type Orchestrator struct {
	agents     Agents
	validator  *validator.Client
	retrieval  *retrieval.Service
	state      *state.Service
	stores     *store.Stores
	ledger     *ledger.Ledger
	quota      QuotaConfig
	chapterCap int // SetLimit for per-chapter fan-out; 0 = unbounded
}

func New(agents Agents, v *validator.Client, r *retrieval.Service, s *state.Service, stores *store.Stores, l *ledger.Ledger, quota QuotaConfig, chapterCap int) *Orchestrator {
	return &Orchestrator{
		agents: agents, validator: v, retrieval: r, state: s, stores: stores,
		ledger: l, quota: quota, chapterCap: chapterCap,
	}
}

// CheckQuota is the gate run before any task is scheduled:
// violation fails fast with ErrQuotaExceeded.
func (o *Orchestrator) CheckQuota(ctx context.Context, userID int64) error {
	created, err := o.ledger.CountCreatedCourses(ctx, userID)
	if err != nil {
		return fmt.Errorf("orchestrator: quota check: %w", err)
	}
	if o.quota.MaxCourseCreations > 0 && created >= o.quota.MaxCourseCreations {
		return ErrQuotaExceeded
	}

	live, err := o.ledger.LiveCourseCount(ctx, userID)
	if err != nil {
		return fmt.Errorf("orchestrator: quota check: %w", err)
	}
	if o.quota.MaxPresentCourses > 0 && live >= o.quota.MaxPresentCourses {
		return ErrQuotaExceeded
	}
	return nil
}

// CancelChecker is polled before and after every external call so a cancel
// signal takes effect within one suspension period. It takes ctx because
// cancel state is persisted in Postgres (see internal/taskregistry), not
// held in process memory.
type CancelChecker func(ctx context.Context, taskID string) bool

// Run drives cfg's course from CREATING to a terminal state. updateStep
// reports progress to the Task Registry; cancelled polls cooperative
// cancellation. Any unrecoverable error marks the course FAILED with
// err.Error() as the error message.
func (o *Orchestrator) Run(ctx context.Context, taskID string, cfg model.CourseCreationConfig, updateStep func(step string, progress int), cancelled CancelChecker) error {
	if cancelled(ctx, taskID) {
		return o.markCancelled(ctx, cfg.CourseID)
	}

	// Step 1: log create_course at the very start, before any costly work.
	if err := o.ledger.Log(ctx, cfg.UserID, model.ActionCreateCourse, &cfg.CourseID, nil, nil); err != nil {
		return o.fail(ctx, cfg.CourseID, fmt.Errorf("log create_course: %w", err))
	}

	sessionID := agent.Session{AppName: "coursesynth", UserID: cfg.UserID, ChapterID: 0}.Key()

	o.state.Init(cfg.UserID, cfg.CourseID, cfg.Query, cfg.TimeHours, cfg.Language, cfg.Difficulty)
	defer o.state.Clear(cfg.UserID, cfg.CourseID)

	updateStep("extracting", 10)
	documents, err := o.loadDocuments(ctx, cfg.DocumentIDs)
	if err != nil {
		return o.fail(ctx, cfg.CourseID, err)
	}
	if err := o.retrieval.Ingest(ctx, cfg.CourseID, documents); err != nil {
		return o.fail(ctx, cfg.CourseID, fmt.Errorf("retrieval ingest: %w", err))
	}

	if cancelled(ctx, taskID) {
		return o.markCancelled(ctx, cfg.CourseID)
	}

	updateStep("analyzing", 20)
	info, err := o.runInfo(ctx, cfg)
	if err != nil {
		return o.fail(ctx, cfg.CourseID, fmt.Errorf("info agent: %w", err))
	}

	imageURL := o.runImage(ctx, agent.Session{AppName: "coursesynth", UserID: cfg.UserID}, fmt.Sprintf("Course cover image for: %s", info.Title))

	course, err := o.stores.Courses().GetByID(ctx, cfg.CourseID)
	if err != nil {
		return o.fail(ctx, cfg.CourseID, fmt.Errorf("load course: %w", err))
	}
	course.SessionID = &sessionID
	course.Title = &info.Title
	course.Description = &info.Description
	course.ImageURL = &imageURL
	if err := o.stores.Courses().Update(ctx, course); err != nil {
		return o.fail(ctx, cfg.CourseID, fmt.Errorf("persist info: %w", err))
	}

	if err := o.bindAssets(ctx, cfg); err != nil {
		return o.fail(ctx, cfg.CourseID, fmt.Errorf("bind assets: %w", err))
	}

	if cancelled(ctx, taskID) {
		return o.markCancelled(ctx, cfg.CourseID)
	}

	updateStep("generating", 35)
	plan, err := o.runPlanner(ctx, cfg)
	if err != nil {
		return o.fail(ctx, cfg.CourseID, fmt.Errorf("planner agent: %w", err))
	}

	course.ChapterCount = len(plan.Chapters)
	if err := o.stores.Courses().Update(ctx, course); err != nil {
		return o.fail(ctx, cfg.CourseID, fmt.Errorf("persist chapter count: %w", err))
	}

	chapterStates := make([]state.ChapterState, 0, len(plan.Chapters))
	for _, c := range plan.Chapters {
		chapterStates = append(chapterStates, state.ChapterState{Caption: c.Caption, Content: c.Content, Time: c.Time})
	}
	o.state.SaveChapters(cfg.UserID, cfg.CourseID, chapterStates)

	if cancelled(ctx, taskID) {
		return o.markCancelled(ctx, cfg.CourseID)
	}

	updateStep("packaging", 50)
	if err := o.runChapterFanout(ctx, cfg, plan.Chapters); err != nil {
		return o.fail(ctx, cfg.CourseID, fmt.Errorf("chapter fan-out: %w", err))
	}

	course.Status = model.CourseStatusFinished
	if err := o.stores.Courses().Update(ctx, course); err != nil {
		return o.fail(ctx, cfg.CourseID, fmt.Errorf("mark finished: %w", err))
	}

	updateStep("completed", 100)
	return nil
}

func (o *Orchestrator) loadDocuments(ctx context.Context, documentIDs []int64) ([]retrieval.DocumentSource, error) {
	sources := make([]retrieval.DocumentSource, 0, len(documentIDs))
	for _, id := range documentIDs {
		doc, err := o.stores.Documents().GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load document %d: %w", id, err)
		}
		sources = append(sources, retrieval.DocumentSource{
			ID:       fmt.Sprintf("%d", doc.ID),
			Filename: doc.Filename,
			Content:  doc.Payload,
		})
	}
	return sources, nil
}

// bindAssets attaches the documents and images the request referenced to
// the now-initialized course,.9 step 7.
func (o *Orchestrator) bindAssets(ctx context.Context, cfg model.CourseCreationConfig) error {
	for _, id := range cfg.DocumentIDs {
		if err := o.stores.Documents().BindToCourse(ctx, id, cfg.CourseID); err != nil {
			return fmt.Errorf("bind document %d: %w", id, err)
		}
	}
	for _, id := range cfg.ImageIDs {
		if err := o.stores.Images().BindToCourse(ctx, id, cfg.CourseID); err != nil {
			return fmt.Errorf("bind image %d: %w", id, err)
		}
	}
	return nil
}

func (o *Orchestrator) runInfo(ctx context.Context, cfg model.CourseCreationConfig) (InfoResult, error) {
	prompt := fmt.Sprintf("Produce a title and description for a course about: %s (language=%s, difficulty=%s)",
		cfg.Query, cfg.Language, cfg.Difficulty)

	var out InfoResult
	result := o.agents.Info.Run(ctx, prompt, &out)
	if result.Status != agent.StatusSuccess {
		return InfoResult{}, fmt.Errorf("%s", result.Message)
	}
	return out, nil
}

func (o *Orchestrator) runImage(ctx context.Context, session agent.Session, prompt string) string {
	result := o.agents.Image.Run(ctx, session, prompt, nil, nil)
	if result.Status != agent.StatusSuccess {
		return fallbackImageURL
	}
	url := strings.TrimSpace(result.Explanation)
	if !strings.HasPrefix(url, "https://") {
		return fallbackImageURL
	}
	return url
}

func (o *Orchestrator) runPlanner(ctx context.Context, cfg model.CourseCreationConfig) (PlannerResult, error) {
	prompt := fmt.Sprintf("Plan chapters for a %d-hour course about: %s (language=%s, difficulty=%s)",
		cfg.TimeHours, cfg.Query, cfg.Language, cfg.Difficulty)

	var out PlannerResult
	result := o.agents.Planner.Run(ctx, prompt, &out)
	if result.Status != agent.StatusSuccess {
		return PlannerResult{}, fmt.Errorf("%s", result.Message)
	}
	return out, nil
}

// runChapterFanout runs every chapter concurrently. errgroup.Group's Wait
// returns the first error and cancels sibling chapter goroutines' context —
// one chapter's escaping exception fails the whole course, kept as
// specified (see DESIGN.md, chapter fan-out error barrier).
func (o *Orchestrator) runChapterFanout(ctx context.Context, cfg model.CourseCreationConfig, plans []model.ChapterPlan) error {
	g, gctx := errgroup.WithContext(ctx)
	if o.chapterCap > 0 {
		g.SetLimit(o.chapterCap)
	}

	for i, plan := range plans {
		i, plan := i, plan
		g.Go(func() error {
			return o.runChapter(gctx, cfg, i+1, plan)
		})
	}
	return g.Wait()
}

func (o *Orchestrator) runChapter(ctx context.Context, cfg model.CourseCreationConfig, index int, plan model.ChapterPlan) error {
	passages, err := o.retrieval.RAGForChapter(ctx, cfg.CourseID, plan)
	if err != nil {
		return fmt.Errorf("chapter %d rag: %w", index, err)
	}

	session := agent.Session{AppName: "coursesynth", UserID: cfg.UserID, ChapterID: int64(index)}

	var content, imageURL string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		content = o.runExplainer(gctx, session, plan, passages)
		return nil
	})
	g.Go(func() error {
		imageURL = o.runImage(gctx, session, fmt.Sprintf("Illustration for chapter: %s", plan.Caption))
		return nil
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("chapter %d explainer/image: %w", index, err)
	}

	chapter := &model.Chapter{
		CourseID:    cfg.CourseID,
		Caption:     plan.Caption,
		Summary:     summaryFromBullets(plan.Content),
		Content:     content,
		TimeMinutes: plan.Time,
		ImageURL:    &imageURL,
	}
	if err := o.stores.Chapters().Create(ctx, chapter); err != nil {
		return fmt.Errorf("chapter %d persist: %w", index, err)
	}

	if err := o.runTester(ctx, session, chapter, passages); err != nil {
		return fmt.Errorf("chapter %d tester: %w", index, err)
	}

	return nil
}

func summaryFromBullets(bullets []string) string {
	n := len(bullets)
	if n > 3 {
		n = 3
	}
	return strings.Join(bullets[:n], "\n")
}

func (o *Orchestrator) runExplainer(ctx context.Context, session agent.Session, plan model.ChapterPlan, passages []string) string {
	prompt := fmt.Sprintf("Write a self-contained UI component explaining: %s\nDetails: %s\nContext:\n%s",
		plan.Caption, strings.Join(plan.Content, "; "), strings.Join(passages, "\n---\n"))

	result := o.agents.Explainer.Run(ctx, session, prompt, nil, nil)
	if result.Status != agent.StatusSuccess {
		return fallbackComponentSource
	}

	repaired, ok := agent.Repair(ctx, o.agents.Explainer, o.validator, session, result.Explanation, explainerRepairIterations)
	if !ok {
		return fallbackComponentSource
	}
	return repaired
}

func (o *Orchestrator) runTester(ctx context.Context, session agent.Session, chapter *model.Chapter, passages []string) error {
	prompt := fmt.Sprintf("Write practice questions for chapter: %s\nContext:\n%s", chapter.Caption, strings.Join(passages, "\n---\n"))

	var out TesterResult
	result := o.agents.Tester.Run(ctx, prompt, &out)
	if result.Status != agent.StatusSuccess {
		// No questions for this chapter is not a chapter-fatal condition;
		// the explicit Open Question resolution only governs how a
		// generated question is tagged, not whether absence is an error.
		return nil
	}

	var repairItems []agent.RepairItem
	finalized := make([]model.GeneratedQuestion, len(out.Questions))
	copy(finalized, out.Questions)

	for i, q := range out.Questions {
		if q.IsComponentSrc {
			repairItems = append(repairItems, agent.RepairItem{ID: fmt.Sprintf("%d", i), Source: q.Question})
		}
	}

	if len(repairItems) > 0 {
		// Reuses the Explainer agent for question-source repair: both
		// produce and fix the same component-source dialect, so a second
		// fine-tuned agent buys nothing the code-review loop doesn't already
		// give us via the validator's errors.
		results := agent.RepairMany(ctx, o.agents.Explainer, o.validator, session, repairItems, testerRepairIterations, 4)
		repairedByID := make(map[string]agent.RepairResult, len(results))
		for _, r := range results {
			repairedByID[r.ID] = r
		}
		for i := range finalized {
			if !out.Questions[i].IsComponentSrc {
				continue
			}
			r, ok := repairedByID[fmt.Sprintf("%d", i)]
			if !ok || !r.OK {
				finalized[i].Question = "" // mark dropped
				continue
			}
			finalized[i].Question = r.Source
		}
	}

	for _, q := range finalized {
		if q.Question == "" {
			continue // dropped: unrepairable component source
		}
		row := &model.PracticeQuestion{
			ChapterID:     chapter.ID,
			Question:      q.Question,
			AnswerA:       q.AnswerA,
			AnswerB:       q.AnswerB,
			AnswerC:       q.AnswerC,
			AnswerD:       q.AnswerD,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   &q.Explanation,
		}
		if row.HasMCOptions() {
			row.Kind = model.QuestionKindMC
		} else {
			row.Kind = model.QuestionKindOT
		}
		if err := o.stores.Questions().Create(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) fail(ctx context.Context, courseID int64, cause error) error {
	course, err := o.stores.Courses().GetByID(ctx, courseID)
	if err == nil {
		message := cause.Error()
		course.Status = model.CourseStatusFailed
		course.ErrorMessage = &message
		_ = o.stores.Courses().Update(ctx, course)
	}
	return cause
}

func (o *Orchestrator) markCancelled(ctx context.Context, courseID int64) error {
	// Cancellation leaves the Course in CREATING; the
	// hourly sweep (internal/worker) eventually flips it to FAILED if it
	// stays stuck. The Task itself is marked cancelled by the caller
	// (internal/worker), which owns the Task Registry update.
	return context.Canceled
}

// StuckCreatingCutoffMinutes is the sweep threshold referenced by
// internal/worker's hourly job.
const StuckCreatingCutoffMinutes = stuckCreatingMinutes

// Grade runs the grading subpath: independent of the
// generation pipeline, invoked whenever a user submits an answer to a
// practice question. The call is logged to the ledger with the full
// grading payload regardless of outcome.
func (o *Orchestrator) Grade(ctx context.Context, userID int64, chapterID int64, question, canonicalAnswer, userAnswer string) (GraderResult, error) {
	prompt := fmt.Sprintf("Question: %s\nCanonical answer: %s\nUser answer: %s\nScore 0, 1, or 2 points and explain.",
		question, canonicalAnswer, userAnswer)

	var out GraderResult
	result := o.agents.Grader.Run(ctx, prompt, &out)

	details := fmt.Sprintf("question=%q canonical=%q user=%q points=%d explanation=%q",
		question, canonicalAnswer, userAnswer, out.Points, out.Explanation)
	_ = o.ledger.Log(ctx, userID, model.ActionGradeQuestion, nil, &chapterID, &details)

	if result.Status != agent.StatusSuccess {
		return GraderResult{}, fmt.Errorf("grader agent: %s", result.Message)
	}
	return out, nil
}
