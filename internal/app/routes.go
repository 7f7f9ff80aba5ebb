package app

import (
	"github.com/askspace/core/internal/middleware"
	"github.com/askspace/core/internal/models"
	"github.com/askspace/core/internal/modules/admin/announcement"
	adminauth "github.com/askspace/core/internal/modules/admin/auth"
	"github.com/askspace/core/internal/modules/admin/dashboard"
	"github.com/askspace/core/internal/modules/admin/role"
	adminuser "github.com/askspace/core/internal/modules/admin/user"
	"github.com/askspace/core/internal/modules/ai"
	"github.com/askspace/core/internal/modules/auth"
	"github.com/askspace/core/internal/modules/content/answer"
	"github.com/askspace/core/internal/modules/content/comment"
	"github.com/askspace/core/internal/modules/content/question"
	"github.com/askspace/core/internal/modules/content/subject"
	"github.com/askspace/core/internal/modules/interaction/ledger"
	"github.com/askspace/core/internal/modules/jobs"
	"github.com/askspace/core/internal/modules/moderation/report"
	"github.com/askspace/core/internal/modules/search"
	"github.com/askspace/core/internal/pkg/mail"
	pkgredis "github.com/askspace/core/internal/pkg/redis"
	"github.com/askspace/core/internal/pkg/response"
	"github.com/askspace/core/internal/pkg/taskqueue"
	"github.com/gin-gonic/gin"
)

// Capability slugs gating the admin surface. An admin needs any one of a
// route's slugs; the super admin role passes every gate.
const (
	capContentManager   = "content-manager"
	capModerator        = "moderator"
	capUserManager      = "user-manager"
	capCommunityManager = "community-manager"
)

func (a *App) registerRoutes(rc *pkgredis.Client) {
	r := a.router
	db := a.db
	log := a.logger

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "Route not found.")
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	// Rate limiting and idempotence run on every route (requires Redis).
	r.Use(middleware.RateLimit(rc.Raw()))
	r.Use(middleware.Idempotence(rc.Raw()))

	authMW := middleware.Auth(db)
	adminMW := middleware.AdminAuth(db)
	notBlockedMW := middleware.NotBlocked(db)

	// Shared services.
	mailer := mail.New(mail.Config{
		Enable:    a.cfg.Mail.Enable,
		Host:      a.cfg.Mail.Host,
		Port:      a.cfg.Mail.Port,
		User:      a.cfg.Mail.User,
		Pass:      a.cfg.Mail.Pass,
		From:      a.cfg.Mail.From,
		ReplyTo:   a.cfg.Mail.ReplyTo,
		UseResend: a.cfg.Mail.UseResend,
		ResendKey: a.cfg.Mail.ResendKey,
		SiteName:  a.cfg.SiteName,
		BaseURL:   a.cfg.BaseURL,
	})
	aiClient := ai.NewClient(a.cfg.AI)
	taskSvc := taskqueue.NewService(rc)
	runner := jobs.NewRunner(db, taskSvc, mailer, aiClient, log, jobs.Options{
		SiteName: a.cfg.SiteName,
		BaseURL:  a.cfg.BaseURL,
	})

	api := r.Group("/api/v1")

	// End-user surface.
	auth.NewHandler(auth.NewService(db, aiClient, log)).RegisterRoutes(api, authMW)
	questionH := question.NewHandler(question.NewService(db, runner, log))
	questionH.RegisterRoutes(api, authMW, notBlockedMW)
	answerH := answer.NewHandler(answer.NewService(db, log))
	answerH.RegisterRoutes(api, authMW, notBlockedMW)
	commentH := comment.NewHandler(comment.NewService(db, log))
	commentH.RegisterRoutes(api, authMW, notBlockedMW)
	subjectH := subject.NewHandler(subject.NewService(db))
	subjectH.RegisterRoutes(api)
	search.NewHandler(search.NewService(db)).RegisterRoutes(api)
	ledgerH := ledger.NewHandler(ledger.NewService(db, log))
	ledgerH.RegisterRoutes(api, authMW)
	reportH := report.NewHandler(report.NewService(db, log))
	reportH.RegisterRoutes(api, authMW)
	announcementH := announcement.NewHandler(announcement.NewService(db, runner, log))
	announcementH.RegisterRoutes(api)

	// Admin surface.
	admin := api.Group("/admin")
	adminauth.NewHandler(adminauth.NewService(db, a.cfg.Admin.SocialiteSecret, log)).
		RegisterRoutes(admin, adminMW)

	authed := admin.Group("", adminMW)
	dashboard.NewHandler(dashboard.NewService(db)).RegisterAdminRoutes(authed)

	moderation := authed.Group("", middleware.Can(capModerator))
	reportH.RegisterAdminRoutes(moderation)
	ledgerH.RegisterAdminRoutes(moderation)

	contents := authed.Group("", middleware.Can(capContentManager, capModerator))
	questionH.RegisterAdminRoutes(contents)
	answerH.RegisterAdminRoutes(contents)
	commentH.RegisterAdminRoutes(contents)

	community := authed.Group("", middleware.Can(capCommunityManager))
	subjectH.RegisterAdminRoutes(community)
	announcementH.RegisterAdminRoutes(community)

	users := authed.Group("", middleware.Can(capUserManager))
	adminuser.NewHandler(adminuser.NewService(db, mailer, log)).RegisterAdminRoutes(users)

	// Role management is reserved for the super admin.
	roles := authed.Group("", middleware.Can(models.SuperAdminSlug))
	role.NewHandler(role.NewService(db, log)).RegisterAdminRoutes(roles)
}
