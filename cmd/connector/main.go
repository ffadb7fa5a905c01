package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nhle/translation-connector/internal/bigword"
	"github.com/nhle/translation-connector/internal/callback"
	"github.com/nhle/translation-connector/internal/credential"
	"github.com/nhle/translation-connector/internal/jobs"
	"github.com/nhle/translation-connector/internal/languages"
	"github.com/nhle/translation-connector/internal/model"
	"github.com/nhle/translation-connector/internal/store"
	tsync "github.com/nhle/translation-connector/internal/sync"
	"github.com/nhle/translation-connector/internal/xliff"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to the config file")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}
	defer st.Close()

	jobStore := jobs.NewSQLiteJobStore(st.DB())
	format := &xliff.XLIFF12{}

	apis := make(map[string]bigword.API)
	providers := make(map[string]callback.Provider)
	submitters := make(map[string]*tsync.Submitter)
	retrievers := make(map[string]*tsync.Retriever)
	poller := tsync.NewPoller()

	for _, p := range cfg.Providers {
		if !p.Enabled {
			continue
		}

		key, err := credential.GetContactKey(p.ID)
		if err != nil {
			log.Printf("provider %s: reading client contact key: %v", p.ID, err)
		}
		if key == "" {
			log.Printf("provider %s: no client contact key configured; vendor calls will fail until one is set", p.ID)
		}

		client := bigword.NewClient(p.ServiceURL, p.ID, key)
		synchronizer := tsync.NewSynchronizer(client, st, jobStore, format, p)
		retriever := tsync.NewRetriever(synchronizer, st, jobStore)

		apis[p.ID] = client
		providers[p.ID] = callback.Provider{API: client, Retriever: retriever}
		submitters[p.ID] = tsync.NewSubmitter(synchronizer, client, st, jobStore, p)
		retrievers[p.ID] = retriever
		poller.RegisterProvider(retriever, p)
	}

	langCache := languages.NewCache(func(id string) (bigword.API, bool) {
		api, ok := apis[id]
		return api, ok
	})

	router := gin.Default()
	callback.NewHandler(st, jobStore, providers).Register(router)
	registerAdminRoutes(router, jobStore, submitters, retrievers, langCache, poller)

	srv := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: router,
	}

	poller.Start()
	defer poller.Stop()

	go func() {
		log.Printf("listening on %s", cfg.Server.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serving: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutting down: %v", err)
	}
}

// registerAdminRoutes exposes the operations the embedding platform
// triggers: job submission, manual pulls, and the supported language list.
func registerAdminRoutes(
	router *gin.Engine,
	jobStore *jobs.SQLiteJobStore,
	submitters map[string]*tsync.Submitter,
	retrievers map[string]*tsync.Retriever,
	langCache *languages.Cache,
	poller *tsync.Poller,
) {
	router.POST("/jobs/:id/submit", func(c *gin.Context) {
		job, err := jobStore.GetJob(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		submitter, ok := submitters[job.ProviderID]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown provider"})
			return
		}
		if err := submitter.RequestTranslation(c.Request.Context(), job.ID); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": string(model.JobStateSubmitted)})
	})

	router.POST("/jobs/:id/pull", func(c *gin.Context) {
		job, err := jobStore.GetJob(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		retriever, ok := retrievers[job.ProviderID]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown provider"})
			return
		}
		counts, err := retriever.FetchAllTranslatedFiles(c.Request.Context(), job.ID)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"translated":   counts.Translated,
			"untranslated": counts.Untranslated,
		})
	})

	router.POST("/providers/:id/pull", func(c *gin.Context) {
		poller.Trigger(c.Param("id"))
		c.Status(http.StatusAccepted)
	})

	router.GET("/providers/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, poller.Statuses())
	})

	router.GET("/categories", func(c *gin.Context) {
		c.JSON(http.StatusOK, model.Categories)
	})

	router.GET("/providers/:id/languages", func(c *gin.Context) {
		supported, err := langCache.Supported(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, supported)
	})
}
