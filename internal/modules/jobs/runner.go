// Package jobs executes background work enqueued by the request path:
// announcement email fan-out and question tagging/embedding calls.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/askspace/core/internal/models"
	"github.com/askspace/core/internal/modules/ai"
	"github.com/askspace/core/internal/pkg/mail"
	"github.com/askspace/core/internal/pkg/taskqueue"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	TaskAnnouncementNotify = "announcement:notify"
	TaskQuestionAI         = "question:ai"

	// DefaultRetryDelay is how long a connection-class failure waits before
	// its single retry.
	DefaultRetryDelay = 10 * time.Minute
)

// TaskStore is the queue backend. Satisfied by *taskqueue.Service.
type TaskStore interface {
	Enqueue(ctx context.Context, taskType string, payload interface{}, dedupKey string) (*taskqueue.Task, error)
	UpdateStatus(ctx context.Context, id string, status taskqueue.TaskStatus, errMsg string) error
}

// Mailer sends broadcast emails. Satisfied by *mail.Sender.
type Mailer interface {
	SendAnnouncement(to string, data mail.AnnouncementData) error
}

// Tagger is the AI collaborator surface the runner needs. Satisfied by
// *ai.Client.
type Tagger interface {
	TagQuestion(ctx context.Context, questionID, title, body string) ([]string, error)
	ProcessEmbeddings(ctx context.Context, questionID, text string) error
}

// Options tunes the runner.
type Options struct {
	RetryDelay time.Duration
	SiteName   string
	BaseURL    string
}

type Runner struct {
	db     *gorm.DB
	tasks  TaskStore
	mailer Mailer
	ai     Tagger
	log    *zap.Logger
	opts   Options
}

func NewRunner(db *gorm.DB, tasks TaskStore, mailer Mailer, tagger Tagger, log *zap.Logger, opts Options) *Runner {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	return &Runner{db: db, tasks: tasks, mailer: mailer, ai: tagger, log: log, opts: opts}
}

type announcementPayload struct {
	AnnouncementID string `json:"announcement_id"`
}

type questionPayload struct {
	QuestionID string `json:"question_id"`
}

// BroadcastAnnouncement enqueues the email fan-out for an announcement and
// starts executing it in the background. Deliberately not deduplicated: a
// repeated send_email update broadcasts again.
func (r *Runner) BroadcastAnnouncement(announcementID string) (string, error) {
	task, err := r.tasks.Enqueue(context.Background(), TaskAnnouncementNotify,
		announcementPayload{AnnouncementID: announcementID}, "")
	if err != nil {
		return "", err
	}
	go r.run(task)
	return task.ID, nil
}

// QuestionCreated enqueues the tagging/embedding pass for a new question.
func (r *Runner) QuestionCreated(questionID string) (string, error) {
	task, err := r.tasks.Enqueue(context.Background(), TaskQuestionAI,
		questionPayload{QuestionID: questionID}, questionID)
	if err != nil {
		return "", err
	}
	go r.run(task)
	return task.ID, nil
}

// run executes a task, retrying exactly once after a fixed delay when the
// failure is connection-class. Any other failure is terminal.
func (r *Runner) run(task *taskqueue.Task) {
	ctx := context.Background()
	if err := r.tasks.UpdateStatus(ctx, task.ID, taskqueue.TaskRunning, ""); err != nil {
		r.log.Error("task start failed", zap.String("task_id", task.ID), zap.Error(err))
		return
	}

	err := r.execute(ctx, task)
	if err != nil && ai.IsConnectionError(err) {
		r.log.Warn("task hit connection failure, retrying once",
			zap.String("task_id", task.ID),
			zap.String("type", task.Type),
			zap.Duration("delay", r.opts.RetryDelay),
			zap.Error(err),
		)
		time.Sleep(r.opts.RetryDelay)
		_ = r.tasks.UpdateStatus(ctx, task.ID, taskqueue.TaskRunning, "")
		err = r.execute(ctx, task)
	}

	if err != nil {
		r.log.Error("task failed",
			zap.String("task_id", task.ID),
			zap.String("type", task.Type),
			zap.Error(err),
		)
		_ = r.tasks.UpdateStatus(ctx, task.ID, taskqueue.TaskFailed, err.Error())
		return
	}
	_ = r.tasks.UpdateStatus(ctx, task.ID, taskqueue.TaskCompleted, "")
}

func (r *Runner) execute(ctx context.Context, task *taskqueue.Task) error {
	switch task.Type {
	case TaskAnnouncementNotify:
		var p announcementPayload
		if err := json.Unmarshal(task.Payload, &p); err != nil {
			return err
		}
		return r.notifyAnnouncement(ctx, p.AnnouncementID)
	case TaskQuestionAI:
		var p questionPayload
		if err := json.Unmarshal(task.Payload, &p); err != nil {
			return err
		}
		return r.processQuestion(ctx, p.QuestionID)
	default:
		return errors.New("unknown task type: " + task.Type)
	}
}

// notifyAnnouncement emails every active user. The announcement's
// notified_at is stamped after the dispatch loop completes. A connection
// failure aborts the loop so the retry re-runs it; per-recipient failures of
// any other class are logged and skipped.
func (r *Runner) notifyAnnouncement(ctx context.Context, announcementID string) error {
	var a models.AnnouncementModel
	if err := r.db.First(&a, "id = ?", announcementID).Error; err != nil {
		return err
	}

	body, err := mail.RenderMarkdown(a.Detail)
	if err != nil {
		return err
	}

	detailURL := ""
	if r.opts.BaseURL != "" {
		detailURL = r.opts.BaseURL + "/announcements/" + a.ID
	}

	sent := 0
	var users []models.UserModel
	err = r.db.Where("is_active = ?", true).
		FindInBatches(&users, 200, func(_ *gorm.DB, _ int) error {
			for _, u := range users {
				sendErr := r.mailer.SendAnnouncement(u.Email, mail.AnnouncementData{
					Recipient: u.Username,
					Title:     a.Title,
					Body:      body,
					DetailURL: detailURL,
					SiteName:  r.opts.SiteName,
				})
				if sendErr != nil {
					if ai.IsConnectionError(sendErr) {
						return sendErr
					}
					r.log.Warn("announcement email skipped",
						zap.String("announcement_id", a.ID),
						zap.String("user_id", u.ID),
						zap.Error(sendErr),
					)
					continue
				}
				sent++
			}
			return nil
		}).Error
	if err != nil {
		return err
	}

	now := time.Now()
	if err := r.db.Model(&models.AnnouncementModel{}).
		Where("id = ?", a.ID).
		Update("notified_at", now).Error; err != nil {
		return err
	}

	r.log.Info("announcement broadcast complete",
		zap.String("announcement_id", a.ID),
		zap.Int("sent", sent),
	)
	return nil
}

// processQuestion runs the tagging and embedding passes for a question.
// Suggested tags are attached as subjects, created on first use.
func (r *Runner) processQuestion(ctx context.Context, questionID string) error {
	var q models.QuestionModel
	if err := r.db.First(&q, "id = ?", questionID).Error; err != nil {
		return err
	}

	tags, err := r.ai.TagQuestion(ctx, q.ID, q.Title, q.Question)
	if err != nil {
		if errors.Is(err, ai.ErrDisabled) {
			return nil
		}
		return err
	}

	for _, tag := range tags {
		var subject models.SubjectModel
		err := r.db.Where("name = ?", tag).
			Attrs(models.SubjectModel{Name: tag}).
			FirstOrCreate(&subject).Error
		if err != nil {
			return err
		}
		if err := r.db.Model(&q).Association("Subjects").Append(&subject); err != nil {
			return err
		}
	}

	if err := r.ai.ProcessEmbeddings(ctx, q.ID, q.Title+"\n\n"+q.Question); err != nil {
		if errors.Is(err, ai.ErrDisabled) {
			return nil
		}
		return err
	}

	r.log.Info("question processed",
		zap.String("question_id", q.ID),
		zap.Strings("tags", tags),
	)
	return nil
}
