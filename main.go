package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"janitor-bot/broadcast"
	"janitor-bot/commands"
	"janitor-bot/config"
	"janitor-bot/embeds"
	"janitor-bot/models"
	"janitor-bot/storage"
)

func main() {
	// Load Configuration
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file, reading from system env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading configuration: ", err)
	}

	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn: cfg.SentryDSN,
		})
		if err != nil {
			log.Fatal("Error initializing sentry: ", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	db, err := models.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Error connecting to database: ", err)
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		log.Fatal("Error creating session: ", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	badActors := &models.BadActorStore{DB: db}
	configs := &models.ServerConfigStore{DB: db}
	users := &models.UserStore{DB: db, AdminServerID: cfg.AdminServerID}
	admins := &models.AdminStore{DB: db}
	if err := admins.Seed(cfg.SuperuserID); err != nil {
		log.Fatal("Error seeding superuser: ", err)
	}

	gateway := broadcast.NewGateway(session)

	broadcaster := &broadcast.Broadcaster{
		Gateway:         gateway,
		Configs:         configs,
		Users:           users,
		Render:          embeds.NewRenderer(gateway, cfg.ScreenshotDir),
		AdminServerID:   cfg.AdminServerID,
		AdminLogChannel: cfg.AdminServerLogChannel,
	}

	cmd := &commands.Command{
		Config:      cfg,
		Broadcaster: broadcaster,
		Gateway:     gateway,
		BadActors:   badActors,
		Configs:     configs,
		Users:       users,
		Admins:      admins,
		Screenshots: &storage.Screenshots{Dir: cfg.ScreenshotDir, Client: http.DefaultClient},
	}
	session.AddHandler(cmd.Handle)

	if err := session.Open(); err != nil {
		log.Fatal("Error opening gateway connection: ", err)
	}
	defer session.Close()

	log.Printf("@%s is wake up.. :)", session.State.User.Username)

	if err := commands.Register(session, session.State.User.ID); err != nil {
		log.Fatal("Error registering commands: ", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down..")
}
