package api

import (
	"fmt"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AryamaVMurthy/event-management-project-sub000/docs"
	v1 "github.com/AryamaVMurthy/event-management-project-sub000/internal/api/handler/v1"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/api/middleware"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/blobstore"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/config"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/notify"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/repository"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/repository/dao"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/service"
)

const basePath = "/api/v1"

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
	Hub    *v1.LiveHub
	Auth   *service.AuthService

	closers []func()
}

// Handlers are the route handlers mounted under basePath.
type Handlers struct {
	Auth         *v1.AuthHandler
	User         *v1.UserHandler
	Event        *v1.EventHandler
	Registration *v1.RegistrationHandler
	Merch        *v1.MerchHandler
	Attendance   *v1.AttendanceHandler
	Document     *v1.DocumentHandler
}

type repositories struct {
	users   *repository.UserRepository
	events  *repository.EventRepository
	regs    *repository.RegistrationRepository
	tickets *repository.TicketRepository
	audit   *repository.AuditRepository
}

func NewServer(conf *config.AppConfig, db *gorm.DB) (*Server, error) {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
		Hub:    v1.NewLiveHub(conf.External.LivePushInterval),
	}

	repos := repositories{
		users:   repository.NewUserRepository(dao.NewUserDAO(db)),
		events:  repository.NewEventRepository(dao.NewEventDAO(db)),
		regs:    repository.NewRegistrationRepository(dao.NewRegistrationDAO(db)),
		tickets: repository.NewTicketRepository(dao.NewTicketDAO(db)),
		audit:   repository.NewAuditRepository(dao.NewAuditDAO(db)),
	}

	blobs := s.initBlobStore(db)
	announcer, err := s.initAnnouncer()
	if err != nil {
		return nil, err
	}
	notifier := s.initNotifier()

	s.Auth = service.NewAuthService(repos.users, conf.Campus)
	uSvc := service.NewUserService(repos.users)
	timeouts := service.TimeoutsFromConfig(conf.External)
	issuer := service.NewTicketIssuer(repos.tickets, conf.Ticket)

	regSvc := service.NewRegistrationService(repos.events, repos.regs, repos.tickets, repos.users, blobs, issuer, notifier, timeouts)
	merchSvc := service.NewMerchService(repos.events, repos.regs, repos.users, blobs, issuer, notifier,
		service.ProofPolicyFromConfig(conf.Blob), timeouts)

	s.MountMiddlewares()
	s.MountHandlers(Handlers{
		Auth:         v1.NewAuthHandler(conf.API, s.Auth),
		User:         v1.NewUserHandler(uSvc),
		Event:        v1.NewEventHandler(service.NewEventService(repos.events, repos.regs, announcer, conf.External.Timeout), uSvc),
		Registration: v1.NewRegistrationHandler(regSvc, uSvc, conf.Blob.MaxUploadBytes),
		Merch:        v1.NewMerchHandler(merchSvc, uSvc, conf.Blob.MaxUploadBytes),
		Attendance: v1.NewAttendanceHandler(
			service.NewAttendanceService(repos.events, repos.regs, repos.tickets, repos.audit),
			uSvc, s.Hub, conf.API.AllowedCORSDomains),
		Document: v1.NewDocumentHandler(
			service.NewTicketService(repos.tickets, repos.events),
			service.NewFileService(blobs, repos.events),
			uSvc),
	})

	return s, nil
}

func (s *Server) initBlobStore(db *gorm.DB) service.BlobStore {
	timeout := s.Config.External.Timeout

	if s.Config.Blob.Driver == "redis" {
		client := blobstore.NewRedisClient(s.Config.Redis)
		s.closers = append(s.closers, func() { _ = client.Close() })
		zap.L().Info("blob store: redis", zap.String("addr", s.Config.Redis.Addr))

		return blobstore.NewRedis(client, s.Config.Redis.Prefix, timeout)
	}

	zap.L().Info("blob store: postgres")

	return blobstore.NewPostgres(dao.NewBlobDAO(db), timeout)
}

func (s *Server) initAnnouncer() (service.Announcer, error) {
	conf := s.Config.Announce
	timeout := s.Config.External.Timeout

	switch conf.Driver {
	case "webhook":
		return notify.NewWebhookAnnouncer(conf.WebhookURL, timeout), nil
	case "amqp":
		a, err := notify.NewAMQPAnnouncer(conf, timeout)
		if err != nil {
			return nil, fmt.Errorf("notify.NewAMQPAnnouncer -> %w", err)
		}
		s.closers = append(s.closers, a.Close)

		return a, nil
	default:
		return notify.NoopAnnouncer{}, nil
	}
}

func (s *Server) initNotifier() service.Notifier {
	if s.Config.SMTP.Host == "" {
		zap.L().Warn("smtp.host is empty, confirmations are only logged")
		return notify.NewLogMailer()
	}

	return notify.NewSMTPMailer(s.Config.SMTP, s.Config.External.Timeout)
}

// Close releases the broker and cache connections.
func (s *Server) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(h Handlers) {
	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth/signup", h.Auth.HandleSignup)
		auth.POST("/auth/login", h.Auth.HandleLogin)
	}

	api := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		api.GET("/users/me", h.User.HandleGetMe)

		api.POST("/admin/organizers", h.User.HandleCreateOrganizer)
		api.GET("/admin/organizers", h.User.HandleListOrganizers)
		api.PATCH("/admin/organizers/:userID", h.User.HandleSetOrganizerDisabled)

		api.GET("/events", h.Event.HandleListEvents)
		api.POST("/events", h.Event.HandleCreateEvent)
		api.GET("/events/:eventID", h.Event.HandleGetEvent)
		api.PATCH("/events/:eventID", h.Event.HandleUpdateEvent)
		api.DELETE("/events/:eventID", h.Event.HandleDeleteEvent)
		api.POST("/events/:eventID/publish", h.Event.HandlePublishEvent)
		api.POST("/events/:eventID/start", h.Event.HandleStartEvent)
		api.POST("/events/:eventID/close", h.Event.HandleCloseEvent)
		api.POST("/events/:eventID/complete", h.Event.HandleCompleteEvent)

		api.POST("/events/:eventID/register", h.Registration.HandleRegister)
		api.GET("/events/:eventID/registrations", h.Registration.HandleListEventRegistrations)
		api.GET("/registrations/me", h.Registration.HandleListMyRegistrations)

		api.POST("/events/:eventID/purchase", h.Merch.HandlePurchase)
		api.POST("/events/:eventID/orders", h.Merch.HandlePlaceOrder)
		api.GET("/events/:eventID/orders", h.Merch.HandleListOrders)
		api.POST("/registrations/:registrationID/payment-proof", h.Merch.HandleSubmitProof)
		api.POST("/registrations/:registrationID/review", h.Merch.HandleReview)

		api.POST("/events/:eventID/attendance/scan", h.Attendance.HandleScan)
		api.POST("/events/:eventID/attendance/override", h.Attendance.HandleOverride)
		api.GET("/events/:eventID/attendance/summary", h.Attendance.HandleSummary)
		api.GET("/events/:eventID/attendance/live", h.Attendance.HandleLive)

		api.GET("/tickets/:ticketID", h.Document.HandleGetTicket)
		api.GET("/files/:fileID", h.Document.HandleDownloadFile)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Campus fest participation API"
	docs.SwaggerInfo.Description = "Events, registrations, merchandise, tickets and attendance."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
