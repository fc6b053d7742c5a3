package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) status(studentID string) error {
	status, err := cli.client.GetFaceDataStatus(context.Background(), studentID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "student:       %s\n", studentID)
	fmt.Fprintf(cli.out, "has face data: %t\n", status.HasFaceData)
	fmt.Fprintf(cli.out, "image count:   %d\n", status.ImageCount)
	if status.LatestStatus != "" {
		fmt.Fprintf(cli.out, "latest status: %s\n", status.LatestStatus)
	}
	if !status.UpdatedAt.IsZero() {
		fmt.Fprintf(cli.out, "updated at:    %s\n", status.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
