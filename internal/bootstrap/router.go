package bootstrap

import (
	"time"

	"cloud.google.com/go/firestore"
	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/Raices-25-26J-118/raices-backend/internal/api/http"
	"github.com/Raices-25-26J-118/raices-backend/internal/api/http/middleware"
	"github.com/Raices-25-26J-118/raices-backend/internal/auth"
	boardhttp "github.com/Raices-25-26J-118/raices-backend/internal/boardstate/http"
	boardrepo "github.com/Raices-25-26J-118/raices-backend/internal/boardstate/repository"
	metricshttp "github.com/Raices-25-26J-118/raices-backend/internal/metrics/http"
	metricssvc "github.com/Raices-25-26J-118/raices-backend/internal/metrics/service"
	"github.com/Raices-25-26J-118/raices-backend/internal/store"
	trackinghttp "github.com/Raices-25-26J-118/raices-backend/internal/tracking/http"
	trackingsvc "github.com/Raices-25-26J-118/raices-backend/internal/tracking/service"
	"github.com/Raices-25-26J-118/raices-backend/internal/users"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	Store          store.Store
	AuthClient     *firebaseauth.Client
	Redis          *redis.Client
	RateLimitRPS   int
	RateLimitBurst int
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", "X-Request-Id"},
		MaxAge:          12 * time.Hour,
	}))
	if dep.RateLimitRPS > 0 {
		r.Use(middleware.RateLimit(float64(dep.RateLimitRPS), dep.RateLimitBurst))
	}

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, fsFromStore(dep.Store), dep.Redis)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	if dep.AuthClient != nil {
		api.Use(auth.Middleware(dep.AuthClient))
		api.Use(auth.WithUser(users.NewRepository(dep.Store)))
	}

	rollup := trackingsvc.NewRollupService(dep.Store)
	tasks := trackingsvc.NewTaskService(dep.Store, rollup)
	items := trackingsvc.NewItemService(dep.Store)
	cascade := trackingsvc.NewCascadeService(dep.Store)
	reconcile := trackingsvc.NewReconcileService(dep.Store)

	projectGroup := api.Group("/projects/:project_id")
	trackinghttp.NewHandler(tasks, items, cascade, reconcile).Register(projectGroup)
	metricshttp.NewHandler(metricssvc.New(dep.Store)).Register(projectGroup)

	if dep.Redis != nil {
		boardhttp.NewHandler(boardrepo.NewBoardRepository(dep.Redis)).Register(api)
	}

	return r
}

// fsFromStore unwraps the Firestore client for the health probe when the
// store is Firestore-backed; the in-memory store reports "disabled".
func fsFromStore(st store.Store) *firestore.Client {
	if fs, ok := st.(*store.FirestoreStore); ok {
		return fs.Client()
	}
	return nil
}
