package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/middleware"
	"github.com/annel0/voxel-world/internal/sim"
	"github.com/annel0/voxel-world/internal/world/stream"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RestServer представляет REST API для инспекции мира
type RestServer struct {
	router  *gin.Engine
	server  *http.Server
	session *sim.Session
	world   WorldInfo
	metrics *ServerMetrics
	log     *logging.Logger
}

// WorldInfo — неизменяемые параметры мира для /api/world
type WorldInfo struct {
	Seed       int64         `json:"seed"`
	Noise      string        `json:"noise"`
	WaterLevel float64       `json:"water_level"`
	ChunkSize  int           `json:"chunk_size"`
	Stream     stream.Config `json:"stream"`
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port     string               // порт для запуска сервера
	Session  *sim.Session         // сессия симуляции
	World    WorldInfo            // параметры мира
	Registry *prometheus.Registry // реестр метрик; nil — новый пустой реестр
	Mode     string               // режим gin: release | debug | test
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}
	if config.Mode == "" {
		config.Mode = gin.ReleaseMode
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}

	gin.SetMode(config.Mode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware("voxel_api"))

	loggerMw := middleware.NewRequestLogger()
	router.Use(loggerMw.Handler())

	promMw := middleware.NewPrometheusMiddleware("voxel_api", config.Registry)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, config.Registry)

	rs := &RestServer{
		router:  router,
		session: config.Session,
		world:   config.World,
		metrics: NewServerMetrics(),
		log:     logging.For(logging.ComponentAPI),
		server: &http.Server{
			Addr:              config.Port,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	rs.setupRoutes()
	return rs
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	// Middleware для CORS
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	api := rs.router.Group("/api")
	{
		api.GET("/height", rs.handleHeight)
		api.GET("/voxel", rs.handleVoxel)
		api.GET("/biome", rs.handleBiome)
		api.GET("/observer", rs.handleObserver)
		api.GET("/stats", rs.handleStats)
		api.GET("/world", rs.handleWorld)
	}

	rs.router.GET("/health", rs.handleHealth)
}

// Handler возвращает HTTP-обработчик сервера
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, GenericResponse{
		Success: false,
		Message: err.Error(),
	})
}

// queryCoord читает обязательную конечную координату из query-параметра
func queryCoord(c *gin.Context, name string) (float64, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return 0, fmt.Errorf("отсутствует параметр %s", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("параметр %s: неверное число %q", name, raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("параметр %s: значение должно быть конечным", name)
	}
	return v, nil
}

func queryCoords(c *gin.Context, names ...string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, name := range names {
		v, err := queryCoord(c, name)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// handleHeight возвращает высоту поверхности колонки
func (rs *RestServer) handleHeight(c *gin.Context) {
	p, err := queryCoords(c, "x", "z")
	if err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Высота получена",
		Data: gin.H{
			"x":      p[0],
			"z":      p[1],
			"height": rs.session.GetHeight(p[0], p[1]),
		},
	})
}

// handleVoxel классифицирует воксель
func (rs *RestServer) handleVoxel(c *gin.Context) {
	p, err := queryCoords(c, "x", "y", "z")
	if err != nil {
		badRequest(c, err)
		return
	}

	class := rs.session.GetVoxel(p[0], p[1], p[2])
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Воксель классифицирован",
		Data: gin.H{
			"x":     math.Floor(p[0]),
			"y":     math.Floor(p[1]),
			"z":     math.Floor(p[2]),
			"class": class.String(),
			"value": int(class),
		},
	})
}

// handleBiome возвращает доминирующий биом и смешанный цвет
func (rs *RestServer) handleBiome(c *gin.Context) {
	p, err := queryCoords(c, "x", "z")
	if err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Биом получен",
		Data: gin.H{
			"x":     p[0],
			"z":     p[1],
			"biome": rs.session.GetBiome(p[0], p[1]),
			"color": rs.session.GetColor(p[0], p[1]),
		},
	})
}

// handleObserver возвращает снимок наблюдателя
func (rs *RestServer) handleObserver(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Состояние наблюдателя",
		Data:    rs.session.Snapshot(),
	})
}

// handleStats возвращает статистику мира и процесса
func (rs *RestServer) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data: gin.H{
			"world":   rs.session.Stats(),
			"process": rs.metrics.Snapshot(),
		},
	})
}

// handleWorld возвращает параметры мира
func (rs *RestServer) handleWorld(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Параметры мира",
		Data:    rs.world,
	})
}

// handleHealth проверка здоровья сервиса
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": rs.metrics.GetUptime(),
	})
}

// Start запускает HTTP-сервер и блокируется до его остановки
func (rs *RestServer) Start() error {
	rs.log.Info("REST API слушает %s", rs.server.Addr)
	if err := rs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ошибка REST сервера: %w", err)
	}
	return nil
}

// Stop выполняет graceful shutdown
func (rs *RestServer) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return rs.server.Shutdown(ctx)
}
