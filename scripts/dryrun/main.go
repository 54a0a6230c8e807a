package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/campuskit/timetable-api/internal/models"
	"github.com/campuskit/timetable-api/internal/repository"
	"github.com/campuskit/timetable-api/internal/timetable"
	"github.com/campuskit/timetable-api/pkg/config"
	"github.com/campuskit/timetable-api/pkg/database"
)

// dryrun generates a timetable for one scope against the live database and
// prints the weekly grid to stdout without committing anything. Useful for
// tuning scheduler weights and attempt budgets.
func main() {
	var (
		semester int
		division string
		seed     int64
		attempts int
	)

	flag.IntVar(&semester, "semester", 0, "target semester")
	flag.StringVar(&division, "division", "", "target division")
	flag.Int64Var(&seed, "seed", 0, "random seed (0 seeds from the clock)")
	flag.IntVar(&attempts, "attempts", 0, "restart attempt cap (0 uses config)")
	flag.Parse()

	if semester <= 0 || division == "" {
		log.Fatal("both -semester and -division are required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	dayStart, err := timetable.ParseClock(cfg.Scheduler.DayStart)
	if err != nil {
		log.Fatalf("invalid SCHEDULER_DAY_START: %v", err)
	}
	dayEnd, err := timetable.ParseClock(cfg.Scheduler.DayEnd)
	if err != nil {
		log.Fatalf("invalid SCHEDULER_DAY_END: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var ref timetable.ReferenceData
	if ref.Subjects, err = repository.NewSubjectRepository(db).ListAll(ctx); err != nil {
		log.Fatalf("failed to load subjects: %v", err)
	}
	if ref.Staff, err = repository.NewStaffRepository(db).ListAll(ctx); err != nil {
		log.Fatalf("failed to load staff: %v", err)
	}
	if ref.Rooms, err = repository.NewRoomRepository(db).ListAll(ctx); err != nil {
		log.Fatalf("failed to load rooms: %v", err)
	}
	if ref.Configs, err = repository.NewRoomConfigRepository(db).ListAll(ctx); err != nil {
		log.Fatalf("failed to load room configs: %v", err)
	}

	existing, err := repository.NewTimetableRepository(db).ListAll(ctx)
	if err != nil {
		log.Fatalf("failed to load existing timetable: %v", err)
	}

	maxAttempts := cfg.Scheduler.MaxAttempts
	if attempts > 0 {
		maxAttempts = attempts
	}

	started := time.Now()
	result, err := timetable.Generate(
		models.Scope{Semester: semester, Division: strings.ToUpper(division)},
		ref,
		existing,
		timetable.Options{
			MaxAttempts:    maxAttempts,
			MaxLabsPerDay:  cfg.Scheduler.MaxLabsPerDay,
			DayStartMinute: dayStart,
			DayEndMinute:   dayEnd,
			Seed:           seed,
		},
	)
	if err != nil {
		log.Fatalf("generation failed: %v", err)
	}

	fmt.Printf("scope: semester %d division %s\n", semester, strings.ToUpper(division))
	fmt.Printf("perfect: %v  attempts: %d  required: %d  placed: %d  fallback: %d  unplaced: %d  elapsed: %s\n\n",
		result.Perfect, result.Attempts, result.Required, result.Placed, result.FallbackPlaced, result.Unplaced, time.Since(started).Round(time.Millisecond))

	printGrid(result.Entries, dayStart, dayEnd)
}

func printGrid(entries []models.TimetableEntry, dayStart, dayEnd int) {
	slots := timetable.BuildSlots(dayStart, dayEnd)

	cells := make(map[string]map[string]string)
	for _, entry := range entries {
		if cells[entry.Day] == nil {
			cells[entry.Day] = make(map[string]string)
		}
		label := entry.Subject
		if entry.Type == models.SessionTypeLab {
			label += " (Lab)"
		}
		cells[entry.Day][entry.TimeLabel] = label
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	header := []string{"Day"}
	for _, slot := range slots {
		header = append(header, slot.Label)
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for _, day := range timetable.Weekdays {
		row := []string{day}
		for _, slot := range slots {
			switch {
			case slot.IsRecess:
				row = append(row, "RECESS")
			case cells[day][slot.Label] != "":
				row = append(row, cells[day][slot.Label])
			default:
				row = append(row, "-")
			}
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}
