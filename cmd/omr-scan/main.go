package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/omr-scan/internal/align"
	"github.com/ironsheep/omr-scan/internal/backend"
	"github.com/ironsheep/omr-scan/internal/ocr"
	"github.com/ironsheep/omr-scan/internal/overlay"
	"github.com/ironsheep/omr-scan/internal/pipeline"
	"github.com/ironsheep/omr-scan/internal/results"
	"github.com/ironsheep/omr-scan/internal/template"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var (
		mode         = flag.String("mode", "", "Extraction mode: answer-key or student")
		imagePath    = flag.String("image", "", "Path to the scanned sheet image (png/jpeg/gif)")
		templatePath = flag.String("template", "", "Path to the bubble template JSON")
		modelPath    = flag.String("model", "", "Optional bubble model artifact; falls back to the intensity heuristic when unavailable")
		threshold    = flag.Float64("threshold", 0, "Fill threshold in (0,1]; 0 uses the default 0.7")
		overlayPath  = flag.String("overlay", "", "Optional path to write a review overlay image")
		outPath      = flag.String("out", "", "Write extracted records to this file instead of stdout")
		submissionID = flag.String("submission-id", "", "Submit to the grading backend under this submission id (student mode)")
		idBox        = flag.String("id-box", "", "Read the submission id from the scan: printed ID box as x1,y1,x2,y2")
		answerKey    = flag.String("answer-key", "", "Answer-key JSON from a previous answer-key run (required when submitting)")
		apiBase      = flag.String("api-base", os.Getenv("OMR_API_BASE"), "Grading backend base URL (env OMR_API_BASE)")
		token        = flag.String("token", os.Getenv("OMR_API_TOKEN"), "Bearer token for the backend (env OMR_API_TOKEN)")
		showVersion  = flag.Bool("version", false, "Print version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("omr-scan %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	}

	// Records go to stdout; everything else to stderr.
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if *mode != "answer-key" && *mode != "student" {
		log.Fatalf("-mode must be answer-key or student, got %q", *mode)
	}
	if *imagePath == "" || *templatePath == "" {
		log.Fatal("-image and -template are required")
	}

	tmpl, err := template.LoadFile(*templatePath)
	if err != nil {
		log.Fatalf("Template error: %v", err)
	}

	cache := align.NewCache()
	img, err := cache.Load(*imagePath)
	if err != nil {
		log.Fatalf("Image error: %v", err)
	}

	p := pipeline.New(tmpl, *modelPath, *threshold)
	canvas, res, err := p.Run(img)
	if err != nil {
		log.Fatalf("Extraction error: %v", err)
	}

	if len(res.Unanswered) > 0 {
		log.Printf("Warning: no answer detected for questions %v", res.Unanswered)
	}

	if *overlayPath != "" {
		if err := overlay.Save(overlay.Render(canvas, res), *overlayPath); err != nil {
			log.Fatalf("Overlay error: %v", err)
		}
		log.Printf("Review overlay written to %s", *overlayPath)
	}

	submitting := *mode == "student" && (*submissionID != "" || *idBox != "")

	var records interface{}
	var studentRecords []results.StudentAnswerEntry
	switch *mode {
	case "answer-key":
		records = results.AnswerKey(res)
	case "student":
		studentRecords = results.StudentAnswers(res)
		records = studentRecords
	}

	if *outPath != "" {
		if err := writeJSON(*outPath, records); err != nil {
			log.Fatalf("Output error: %v", err)
		}
		log.Printf("Records written to %s", *outPath)
	} else if !submitting {
		if err := printJSON(records); err != nil {
			log.Fatalf("Output error: %v", err)
		}
	} else {
		log.Print("Records not persisted; pass -out to keep them alongside the evaluation")
	}

	if !submitting {
		return
	}

	id := *submissionID
	if id == "" {
		id, err = ocr.ReadSheetID(img, parseBox(*idBox))
		if err != nil {
			log.Fatalf("Sheet ID error: %v", err)
		}
		log.Printf("Submission id %s read from sheet", id)
	}

	if *answerKey == "" {
		log.Fatal("-answer-key is required when submitting for evaluation")
	}
	key, err := loadAnswerKey(*answerKey)
	if err != nil {
		log.Fatalf("Answer key error: %v", err)
	}

	client := backend.New(*apiBase, *token)
	resp, err := client.Evaluate(context.Background(), id, backend.EvaluatePayload{
		AnswerKey:      key,
		StudentAnswers: studentRecords,
	})
	if err != nil {
		log.Fatalf("Evaluation error: %v", err)
	}

	if err := printJSON(resp); err != nil {
		log.Fatalf("Output error: %v", err)
	}
}

// parseBox parses the -id-box value "x1,y1,x2,y2".
func parseBox(s string) ocr.Box {
	var b ocr.Box
	if _, err := fmt.Sscanf(s, "%d,%d,%d,%d", &b.X1, &b.Y1, &b.X2, &b.Y2); err != nil {
		log.Fatalf("-id-box must be x1,y1,x2,y2, got %q", s)
	}
	return b
}

// loadAnswerKey reads the answer-key records produced by an answer-key run.
func loadAnswerKey(path string) ([]results.AnswerKeyEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var key []results.AnswerKeyEntry
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return key, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
