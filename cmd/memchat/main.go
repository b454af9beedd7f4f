// memchat is a chat assistant with hybrid conversational memory: a bounded
// short-term turn buffer plus a persistent vector index of past exchanges.
//
// By default it runs an interactive REPL; with -serve it exposes the HTTP
// gateway instead.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/contextware/memchat/config"
	"github.com/contextware/memchat/llm"
	"github.com/contextware/memchat/memory"
	mockembedder "github.com/contextware/memchat/memory/embedder/mock"
	openaiembedder "github.com/contextware/memchat/memory/embedder/openai"
	"github.com/contextware/memchat/memory/store/chromem"
	"github.com/contextware/memchat/observability"
	"github.com/contextware/memchat/prompt"
	"github.com/contextware/memchat/server"
	"github.com/contextware/memchat/session"
)

func main() {
	serve := flag.Bool("serve", false, "run the HTTP gateway instead of the interactive REPL")
	mockEmbed := flag.Bool("mock-embedder", false, "use the offline deterministic embedder (no semantic similarity)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	log := newLogger(cfg)
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	client, err := newCompletionClient(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to create completion client")
	}

	longTerm, err := newLongTermMemory(cfg, *mockEmbed, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open long-term memory")
	}

	sess := session.New(
		memory.NewTurnStore(cfg.ConversationBufferSize),
		longTerm,
		prompt.NewComposer(""),
		client,
		session.Config{
			Model:          cfg.ModelName,
			Temperature:    cfg.Temperature,
			MaxTokens:      cfg.MaxTokens,
			RetrievalK:     cfg.RetrievalK,
			MinSimilarity:  float32(cfg.MinSimilarity),
			RequestTimeout: cfg.RequestTimeout,
		},
		log,
		session.WithDegradationHook(func(stage string) {
			metrics.MemoryDegradations.WithLabelValues(stage).Inc()
		}),
		session.WithRetrievalObserver(func(count int) {
			metrics.RetrievedRecords.Observe(float64(count))
		}),
	)

	if *serve {
		runServer(cfg, sess, metrics, log)
		return
	}
	runREPL(sess)
}

func newLogger(cfg config.Config) *logrus.Entry {
	l := logrus.New()
	if cfg.LogFormat == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	return logrus.NewEntry(l)
}

func newCompletionClient(cfg config.Config, log *logrus.Entry) (llm.Client, error) {
	if cfg.Provider == config.ProviderAnthropic {
		return llm.NewAnthropic(cfg.AnthropicAPIKey, log)
	}
	return llm.NewOpenAI(cfg.OpenAIAPIKey, log)
}

func newLongTermMemory(cfg config.Config, mockEmbed bool, log *logrus.Entry) (memory.Capability, error) {
	if !cfg.LongTermMemory {
		return memory.Noop{}, nil
	}

	index, err := chromem.New(cfg.ChromaDBDir, cfg.CollectionName, log)
	if err != nil {
		return nil, err
	}

	var embedder memory.Embedder
	if mockEmbed {
		embedder = mockembedder.New(0)
	} else {
		embedder, err = openaiembedder.New(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
		if err != nil {
			return nil, err
		}
	}

	return memory.NewIndexAdapter(index, embedder, log)
}

func runServer(cfg config.Config, sess *session.Session, metrics *observability.Metrics, log *logrus.Entry) {
	gateway := server.New(sess, metrics, log)
	srv := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: gateway.Router(),
	}

	go func() {
		log.WithField("addr", cfg.BindAddr).Info("chat gateway listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("shutdown incomplete")
	}
}

func runREPL(sess *session.Session) {
	you := color.New(color.FgCyan, color.Bold)
	bot := color.New(color.FgGreen)
	sys := color.New(color.FgYellow)

	sys.Println("memchat: hybrid-memory assistant")
	sys.Println("commands: /stats /clear /clear-all /quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		you.Print("You: ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			return
		case "/stats":
			stats := sess.Stats(context.Background())
			sys.Printf("short-term: %d turns (window %d exchanges), long-term: %d records\n",
				stats.ShortTermTurns, stats.ShortTermWindow, stats.LongTermRecords)
			continue
		case "/clear":
			if err := sess.ClearMemory(context.Background(), false); err != nil {
				sys.Printf("clear failed: %v\n", err)
			} else {
				sys.Println("short-term memory cleared")
			}
			continue
		case "/clear-all":
			if err := sess.ClearMemory(context.Background(), true); err != nil {
				sys.Printf("clear failed: %v\n", err)
			} else {
				sys.Println("short-term and long-term memory cleared")
			}
			continue
		}

		response, err := sess.Chat(context.Background(), line, nil)
		if err != nil {
			sys.Printf("error: %v\n", err)
			continue
		}
		bot.Printf("Assistant: %s\n", response)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}
