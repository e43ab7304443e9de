package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"net/http"

	"github.com/arminHadzicAPL/scrollmedia/internal/log"
)

func main() {
	listenPtr := flag.String("listen", ":8089", "Адрес HTTP-сервера")
	scenePtr := flag.String("scene", "scene.yaml", "Путь к YAML-файлу сцены")
	verbosePtr := flag.Bool("v", false, "Подробный лог")

	flag.Parse()

	level := "info"
	if *verbosePtr {
		level = "debug"
	}
	log.Configure(log.Config{Level: level})
	logger := log.WithComponent("previewd")

	store, err := newSceneStore(*scenePtr)
	if err != nil {
		stdlog.Fatalf("[-] Ошибка чтения сцены: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go store.Watch(ctx, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWS(ctx, store, w, r)
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		sc, version := store.Load()
		fmt.Fprintf(w, "ok scene=%s version=%d bindings=%d\n", store.path, version, len(sc.Bindings))
	})

	logger.Info().Str("listen", *listenPtr).Str("scene", *scenePtr).Msg("previewd started")
	if err := http.ListenAndServe(*listenPtr, mux); err != nil {
		stdlog.Fatalf("[-] Ошибка сервера: %v", err)
	}
}
