package main

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"impostord/broadcast"
	"impostord/database"
	"impostord/game"
	"impostord/handlers"
	"impostord/session"
	"impostord/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

const resumeTokenTTL = 24 * time.Hour

func main() {
	logger, err := utils.InitLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	config, err := database.LoadConfig("config.json")
	if err != nil {
		logger.Warn("config.json not loaded, using defaults", zap.Error(err))
	}

	// Postgres and Redis come up concurrently.
	var db *gorm.DB
	var rdb *redis.Client
	done := make(chan bool)

	go func() {
		var err error
		db, err = database.InitPostgreSQL(config, logger)
		if err != nil {
			// The match archive is optional; the game itself lives in memory.
			logger.Warn("match archive unavailable", zap.Error(err))
		}
		done <- true
	}()

	go func() {
		var err error
		rdb, err = database.InitRedis(logger)
		if err != nil {
			logger.Fatal("Failed to initialize Redis", zap.Error(err))
		}
		done <- true
	}()

	<-done
	<-done

	hub := broadcast.NewHub(logger)
	recorder := database.NewRecorder(db, logger)
	registry := game.NewRegistry(hub, recorder, logger)
	sessions := session.NewStore(rdb, resumeTokenTTL, logger)

	go utils.CronCleaner(db, registry, logger)

	router := gin.Default()
	router.Use(gin.Recovery(), utils.RequestLogger(logger))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.POST("/create", func(c *gin.Context) {
		handlers.RoomCreate(c, registry, config, logger)
	})
	router.GET("/rooms/:id", func(c *gin.Context) {
		handlers.RoomInfo(c, registry)
	})
	router.GET("/ws", func(c *gin.Context) {
		handlers.HandleWS(c, registry, hub, sessions, upgrader, logger)
	})

	router.Run()
}
