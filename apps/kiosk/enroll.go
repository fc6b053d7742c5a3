package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/doe69john/SmartAttendanceSMU-sub001/core/bus"
	"github.com/doe69john/SmartAttendanceSMU-sub001/core/capture"
	"github.com/doe69john/SmartAttendanceSMU-sub001/core/enroll"
	"github.com/doe69john/SmartAttendanceSMU-sub001/services/camera"
)

// enroll runs the guided capture wizard against the terminal: the camera feeds
// frames to the validator until every pose quota is met, then the batch goes
// through the upload pipeline.
func (cli *commandLine) enroll(studentID, framesDir string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var source capture.Source
	if framesDir != "" {
		source = camera.NewDir(framesDir, 0)
	} else {
		source = camera.NewSynthetic(640, 480, 0)
	}

	events := bus.New()
	defer events.Close()

	evCh := make(chan bus.Event, 4)
	if err := events.Subscribe("kiosk", evCh); err != nil {
		return err
	}
	go func() {
		for ev := range evCh {
			fmt.Fprintf(cli.out, "enrollment updated: images=%d hasFaceData=%t\n", ev.ImageCount, ev.HasFaceData)
		}
	}()

	pipeline := enroll.NewPipeline(cli.conf, cli.logger, cli.client, cli.client, events)
	pipeline.OnProgress(func(p enroll.Progress) {
		fmt.Fprintf(cli.out, "  prepare=%s upload=%s record=%s\n", p.Prepare, p.Upload, p.Record)
	})

	done := make(chan error, 1)
	var controller *capture.Controller

	validator := capture.NewValidator(cli.client, cli.conf, cli.logger)
	controller = capture.NewController(
		cli.conf, cli.logger, source, validator, capture.DefaultSteps(),
		func(frames []capture.Frame) {
			err := pipeline.Process(ctx, studentID, frames)
			for err != nil {
				fmt.Fprintf(cli.out, "processing failed: %v\n", err)
				if !cli.confirm("Retry?") {
					done <- err
					return
				}
				err = pipeline.Retry(ctx, studentID, frames)
			}
			controller.ProcessingSucceeded()
			done <- nil
		},
		capture.Hooks{
			Phase: func(p capture.Phase) {
				fmt.Fprintf(cli.out, "phase: %s\n", p)
			},
			Status: func(msg string) {
				fmt.Fprintf(cli.out, "%s\n", msg)
			},
		},
	)

	if err := controller.Begin(ctx); err != nil {
		return err
	}
	defer controller.Exit()

	fmt.Fprintln(cli.out, "Position the student in front of the camera and follow the pose prompts.")
	fmt.Fprint(cli.out, "Press Enter to start capturing:")
	bufio.NewReader(cli.in).ReadString('\n')
	controller.AcknowledgeGuidance()

	if err := <-done; err != nil {
		return err
	}

	status, err := cli.client.GetFaceDataStatus(ctx, studentID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Enrollment complete: %d images on record (status %q)\n", status.ImageCount, status.LatestStatus)
	return nil
}

func (cli *commandLine) confirm(prompt string) bool {
	fmt.Fprintf(cli.out, "%s [y/N]:", prompt)
	line, _ := bufio.NewReader(cli.in).ReadString('\n')
	return strings.EqualFold(strings.TrimSpace(line), "y")
}
