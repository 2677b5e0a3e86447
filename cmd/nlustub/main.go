package main

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"nlu-regress/internal/nlustub"
)

func main() {
	var (
		fixturesPath = flag.String("fixtures", "fixtures.json", "JSON file mapping sentences to parse responses")
		addr         = flag.String("addr", "", "listen address (defaults to :$PORT or :5005)")
		delay        = flag.Duration("delay", 0, "artificial latency added to every parse response")
		token        = flag.String("token", "", "bearer token required on parse requests (env NLU_REGRESS_TOKEN)")
		origins      = flag.String("origins", "", "comma separated CORS origins (default allows all)")
	)
	flag.Parse()

	if *token == "" {
		*token = strings.TrimSpace(os.Getenv("NLU_REGRESS_TOKEN"))
	}
	listen := *addr
	if listen == "" {
		port := os.Getenv("PORT")
		if port == "" {
			port = "5005"
		}
		listen = ":" + port
	}

	fixtures, err := nlustub.LoadFixtures(*fixturesPath)
	if err != nil {
		logrus.Fatalf("load fixtures: %v", err)
	}

	var allowed []string
	for _, origin := range strings.Split(*origins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowed = append(allowed, origin)
		}
	}

	server, err := nlustub.NewServer(nlustub.Config{
		Fixtures:       fixtures,
		Delay:          *delay,
		Token:          *token,
		AllowedOrigins: allowed,
	})
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	logrus.WithFields(logrus.Fields{
		"fixtures": len(fixtures.Responses),
		"model":    fixtures.Model,
		"delay":    delay.Round(time.Millisecond).String(),
	}).Infof("starting nlu stub on %s", listen)
	if err := server.Router().Run(listen); err != nil {
		logrus.Fatalf("server exited: %v", err)
	}
}
