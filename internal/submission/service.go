package submission

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"openlang/backend/internal/domain"
	"openlang/backend/internal/mailer"
	"openlang/backend/internal/monitoring"
	"openlang/backend/internal/ratelimit"
	"openlang/backend/internal/storage"
)

// notifyTimeout 限制两封邮件的总耗时
const notifyTimeout = 30 * time.Second

// Result 是一次被接受的提交的处理结果
type Result struct {
	Record    domain.Record
	Message   string
	EmailSent bool // 只反映确认邮件是否送达

	// NotificationErr 汇总未送达的邮件，均为 *NotificationError
	NotificationErr error
}

// Service 执行 校验 -> 限流 -> 持久化 -> 通知 的提交流程
type Service struct {
	form       Form
	store      storage.Store
	limiter    ratelimit.Limiter
	dispatcher *mailer.Dispatcher
	metrics    *monitoring.Metrics
	logger     *zap.Logger
}

// NewService 创建表单提交服务
//
// 参数:
//   - form: 表单定义
//   - store: 持久化存储
//   - limiter: 按邮箱限流
//   - dispatcher: 通知分发器，可为 nil（不发送邮件）
//   - metrics: 监控指标，可为 nil
func NewService(
	form Form,
	store storage.Store,
	limiter ratelimit.Limiter,
	dispatcher *mailer.Dispatcher,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		form:       form,
		store:      store,
		limiter:    limiter,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger.With(zap.String("form", form.Name)),
	}
}

// Form 返回表单定义
func (s *Service) Form() Form {
	return s.form
}

// Submit 处理一次提交
//
// 返回的错误为 *domain.ValidationError、ErrRateLimited 或 *PersistenceError；
// 持久化成功后邮件失败不会返回错误，只体现在 Result 中。
// 客户端断开不会中断已开始的持久化与通知。
func (s *Service) Submit(ctx context.Context, raw map[string]any) (*Result, error) {
	start := time.Now()

	values, err := s.form.Schema.Validate(raw)
	if err != nil {
		s.logger.Debug("submission rejected by validation", zap.Error(err))
		s.metrics.RecordSubmission(s.form.Name, monitoring.OutcomeInvalid)
		return nil, err
	}
	email := values.Email()

	if s.limiter != nil {
		limited, err := s.limiter.CheckAndIncrement(ctx, s.form.Name+":"+email)
		switch {
		case err != nil:
			// 限流后端故障时放行，持久化仍是最终保障
			s.logger.Warn("rate limiter unavailable, allowing submission", zap.Error(err))
		case limited:
			s.logger.Warn("submission rate limited", zap.String("email", email))
			s.metrics.RecordSubmission(s.form.Name, monitoring.OutcomeRateLimited)
			s.metrics.RecordRateLimitBlock("email")
			return nil, ErrRateLimited
		}
	}

	rec := s.form.Build(values)
	if err := s.store.Insert(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Error("failed to persist submission",
			zap.String("table", rec.TableName()),
			zap.String("email", email),
			zap.Error(err),
		)
		s.metrics.RecordSubmission(s.form.Name, monitoring.OutcomeFailed)
		return nil, &PersistenceError{Table: rec.TableName(), Err: err}
	}

	id, _ := rec.Identity()
	s.logger.Info("submission saved", zap.String("id", id))

	result := &Result{
		Record:  rec,
		Message: s.form.SuccessMessage,
	}
	s.notify(ctx, rec, result)

	s.metrics.RecordSubmission(s.form.Name, monitoring.OutcomeAccepted)
	s.metrics.ObserveSubmission(s.form.Name, time.Since(start))
	return result, nil
}

func (s *Service) notify(ctx context.Context, rec domain.Record, result *Result) {
	notice := mailer.Notice{
		Form:      s.form.Name,
		Submitter: rec.Submitter(),
	}
	if s.form.Confirmation != nil {
		notice.Confirmation = s.form.Confirmation(rec)
	}
	if s.form.Notification != nil {
		notice.Notification = s.form.Notification(rec)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	out := s.dispatcher.Dispatch(ctx, notice)
	result.EmailSent = out.ConfirmationSent

	var errs []error
	if notice.Confirmation != nil {
		s.metrics.RecordEmail(s.form.Name, "confirmation", emailResult(out.ConfirmationSent, out.ConfirmationErr))
		if out.ConfirmationErr != nil {
			errs = append(errs, &NotificationError{Form: s.form.Name, Kind: "confirmation", Err: out.ConfirmationErr})
		}
	}
	if notice.Notification != nil {
		s.metrics.RecordEmail(s.form.Name, "notification", emailResult(out.NotificationSent, out.NotificationErr))
		if out.NotificationErr != nil {
			errs = append(errs, &NotificationError{Form: s.form.Name, Kind: "notification", Err: out.NotificationErr})
		}
	}
	result.NotificationErr = errors.Join(errs...)

	if result.NotificationErr != nil {
		s.logger.Warn("submission saved but not all emails were delivered",
			zap.Bool("confirmation_sent", out.ConfirmationSent),
			zap.Bool("notification_sent", out.NotificationSent),
			zap.Error(result.NotificationErr),
		)
	}
}

func emailResult(sent bool, err error) string {
	switch {
	case sent:
		return "sent"
	case errors.Is(err, mailer.ErrNotConfigured):
		return "skipped"
	case err != nil:
		return "failed"
	default:
		return "skipped"
	}
}
