package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oakline/taskherald/internal/alert"
	"github.com/oakline/taskherald/internal/config"
	"github.com/oakline/taskherald/internal/model"
	"github.com/oakline/taskherald/internal/notify"
	"github.com/oakline/taskherald/internal/scanner"
	"github.com/oakline/taskherald/internal/scheduler"
	"github.com/oakline/taskherald/internal/server"
	"github.com/oakline/taskherald/internal/store"
)

var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "taskherald",
	Short: "taskherald - task deadline reminder service",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reminder service (HTTP, scheduler, live alerts)",
	RunE:  runServe,
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a task from the command line",
	RunE:  runAdd,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked tasks ordered by due date",
	RunE:  runList,
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a single deadline scan and exit",
	RunE:  runScan,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("taskherald %s\n", version)
	},
}

var (
	addTitle string
	addDesc  string
	addDue   string
	addEmail string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "config file path")

	addCmd.Flags().StringVar(&addTitle, "title", "", "task title (required)")
	addCmd.Flags().StringVar(&addDesc, "desc", "", "task description")
	addCmd.Flags().StringVar(&addDue, "due", "", "due date, YYYY-MM-DDTHH:MM (required)")
	addCmd.Flags().StringVar(&addEmail, "email", "", "override notification recipient")

	rootCmd.AddCommand(serveCmd, addCmd, listCmd, scanCmd, versionCmd)
}

// buildNotifier assembles the email notifier plus the optional
// telegram mirror.
func buildNotifier(cfg *config.Config) (notify.Notifier, error) {
	email := notify.NewSMTPNotifier(cfg.SMTP)

	if !cfg.Telegram.Enabled {
		return email, nil
	}

	tg, err := notify.NewTelegramNotifier(cfg.Telegram)
	if err != nil {
		return nil, err
	}
	return notify.NewManager(email, tg), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	notifier, err := buildNotifier(cfg)
	if err != nil {
		return err
	}

	hub := alert.NewHub()
	defer hub.Close()

	sc := scanner.New(st, notifier, hub, cfg.SMTP.DefaultTo, cfg.Scan.DayLead, cfg.Scan.HourLead)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(sc, cfg.Scan.Interval)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	srv := server.New(cfg.Server.Addr, st, notifier, hub)
	if err := srv.Start(ctx); err != nil {
		return err
	}
	defer srv.Stop()

	log.Printf("[taskherald] running, press ctrl-c to stop")
	<-ctx.Done()
	log.Printf("[taskherald] shutting down")

	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	if addTitle == "" || addDue == "" {
		return fmt.Errorf("--title and --due are required")
	}

	due, err := time.ParseInLocation("2006-01-02T15:04", addDue, time.Local)
	if err != nil {
		due, err = time.ParseInLocation(model.DueDateLayout, addDue, time.Local)
		if err != nil {
			return fmt.Errorf("invalid due date %q, use YYYY-MM-DDTHH:MM", addDue)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	task := model.Task{
		Title:       addTitle,
		Description: addDesc,
		DueDate:     due,
		NotifyEmail: addEmail,
	}
	if err := st.CreateTask(cmd.Context(), &task); err != nil {
		return err
	}

	fmt.Printf("created task %s, due %s\n", task.ID, task.DueDate.Format(model.DueDateLayout))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	tasks, err := st.ListTasks(cmd.Context())
	if err != nil {
		return err
	}

	if len(tasks) == 0 {
		fmt.Println("no tasks")
		return nil
	}

	for _, t := range tasks {
		flags := ""
		if t.Notified1Day {
			flags += " [1d]"
		}
		if t.Notified1Hour {
			flags += " [1h]"
		}
		title := t.Title
		if strings.TrimSpace(title) == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s  %-8s %s%s\n", t.DueDate.Format(model.DueDateLayout), t.Status, title, flags)
	}

	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	notifier, err := buildNotifier(cfg)
	if err != nil {
		return err
	}

	sc := scanner.New(st, notifier, nil, cfg.SMTP.DefaultTo, cfg.Scan.DayLead, cfg.Scan.HourLead)
	res := sc.RunScan(cmd.Context(), time.Now())

	fmt.Printf("scan complete: day=%d hour=%d errors=%d\n", res.DaySent, res.HourSent, res.Errors)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
