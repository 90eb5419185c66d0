package main

import (
	"net/http"
	_ "net/http/pprof"

	"go.uber.org/zap"
)

func enablePPROF(addr string, log *zap.Logger) {
	go func() {
		log.Info("pprof listening", zap.String("url", "http://"+addr+"/debug/pprof/"))
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Warn("pprof stopped", zap.Error(err))
		}
	}()
}
