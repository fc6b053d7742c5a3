package main

import (
	"context"
	"fmt"
)

// wipe removes the student's stored images first, then their database records;
// a half-wiped student can re-enroll either way, upserts overwrite leftovers.
func (cli *commandLine) wipe(studentID string) error {
	ctx := context.Background()

	if err := cli.client.DeleteAllFaceImages(ctx, studentID); err != nil {
		return err
	}
	if err := cli.client.DeleteFaceData(ctx, studentID); err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "face data wiped for student %s\n", studentID)
	return nil
}
