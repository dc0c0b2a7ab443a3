package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/slotmon/slotmon"
	"github.com/slotmon/slotmon/hcaptcha"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/100.0.4896.127 Safari/537.36"

func main() {
	logLevel := flag.String("log-level", "info", "logging level")
	headless := flag.Bool("headless", true, "run the browser headless")
	scale := flag.Float64("scale", 2.0, "device scale factor for screenshots")
	configPath := flag.String("config-path", "config.json", "path to the config file")
	statePath := flag.String("state-path", "state.json", "path to the state file")
	flag.Parse()

	setupLogging(*logLevel)

	if err := readConfig(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Cannot read config")
	}

	command := flag.Arg(0)
	if command == "" {
		command = "check"
	}

	switch command {
	case "check":
		monitor, err := buildMonitor(*headless, *scale, *statePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Cannot initialize")
		}
		if err := monitor.CheckOnce(); err != nil {
			log.Fatal().Err(err).Msg("Check failed")
		}

	case "monitor":
		monitor, err := buildMonitor(*headless, *scale, *statePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Cannot initialize")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := monitor.Run(ctx); err != nil && err != context.Canceled {
			log.Fatal().Err(err).Msg("Monitor stopped")
		}

	case "bot-test":
		runBotTest(buildModel(*headless, *scale), !*headless)

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s (expected check, monitor or bot-test)\n", command)
		os.Exit(2)
	}
}

func setupLogging(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}

	lj := &lumberjack.Logger{Filename: "./logs/slotmon.log", MaxSize: 25, Compress: true}
	multiWriter := zerolog.MultiLevelWriter(
		zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339},
		lj,
	)

	log.Logger = zerolog.New(multiWriter).Level(parsed).With().Timestamp().Logger()
}

func readConfig(path string) error {
	viper.SetConfigFile(path)
	viper.SetConfigType("json")

	viper.SetDefault("period_seconds", 15*60)
	viper.SetDefault("cookies_path", "cookies.json")
	viper.SetDefault("artifacts_dir", "artifacts")
	viper.SetDefault("user_agent", defaultUserAgent)

	return viper.ReadInConfig()
}

func requireString(key string) string {
	value := viper.GetString(key)
	if value == "" {
		log.Fatal().Msgf("%q config key expected", key)
	}
	return value
}

func buildModel(headless bool, scale float64) *slotmon.Model {
	return &slotmon.Model{
		Visible:     !headless,
		ShowImages:  true,
		UserAgent:   viper.GetString("user_agent"),
		ScaleFactor: scale,
	}
}

func buildMonitor(headless bool, scale float64, statePath string) (*slotmon.Monitor, error) {
	monitor := &slotmon.Monitor{
		Model: buildModel(headless, scale),
		CheckConfig: slotmon.CheckConfig{
			SchedulingURL:     requireString("scheduling_url"),
			City:              viper.GetString("scheduling_city"),
			Category:          requireString("scheduling_category"),
			AnticaptchaAPIKey: viper.GetString("anticaptcha_api_key"),
			Applicant: slotmon.Applicant{
				GivenName:     viper.GetString("applicant.given_name"),
				Surname:       viper.GetString("applicant.surname"),
				ContactNumber: viper.GetString("applicant.contact_number"),
				Email:         viper.GetString("applicant.email"),
			},
		},
		State:       slotmon.NewJSONFileState(statePath),
		Artifacts:   &slotmon.Artifacts{Dir: viper.GetString("artifacts_dir")},
		CookiesPath: viper.GetString("cookies_path"),
		Period:      time.Duration(viper.GetInt("period_seconds")) * time.Second,
	}

	if key := viper.GetString("anticaptcha_api_key"); key != "" {
		monitor.Solver = hcaptcha.New(key)
	}

	if proxy := viper.GetString("proxy_server"); proxy != "" {
		monitor.ProxyGetter = slotmon.StaticProxy(proxy)
	}

	notifier, err := slotmon.NewNotifier(
		requireString("telegram_bot_api_token"),
		viper.GetInt64("telegram_chat_id"),
	)
	if err != nil {
		return nil, err
	}
	notifier.StatusMessageID = viper.GetInt("telegram_status_message_id")
	monitor.Notifier = notifier

	return monitor, nil
}

func runBotTest(model *slotmon.Model, holdOpen bool) {
	navigator := new(slotmon.ChromeNavigator)
	navigator.SetModel(model)
	defer navigator.Close()

	artifacts := &slotmon.Artifacts{Dir: viper.GetString("artifacts_dir")}

	if err := slotmon.BotTest(navigator, artifacts, holdOpen); err != nil {
		log.Fatal().Err(err).Msg("Bot test failed")
	}
}
