package main

import (
	"io"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
)

func TestRootCmd(t *testing.T) {
	convey.Convey("Given the probe command", t, func() {
		cmd := newRootCmd()

		convey.Convey("Then it should expose defaults", func() {
			flags := cmd.Flags()
			url, err := flags.GetString("url")
			convey.So(err, convey.ShouldBeNil)
			convey.So(url, convey.ShouldEqual, "http://localhost:1010")

			records, err := flags.GetInt("records")
			convey.So(err, convey.ShouldBeNil)
			convey.So(records, convey.ShouldEqual, defaultRecords)

			deadline, err := flags.GetDuration("deadline")
			convey.So(err, convey.ShouldBeNil)
			convey.So(deadline, convey.ShouldEqual, 10*time.Minute)
		})

		convey.Convey("When flags are parsed", func() {
			err := cmd.ParseFlags([]string{"--url", "http://svc:8080", "-n", "12", "--batch", "3", "--seed", "9"})

			convey.Convey("Then they should override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				url, _ := cmd.Flags().GetString("url")
				n, _ := cmd.Flags().GetInt("records")
				seed, _ := cmd.Flags().GetUint64("seed")
				convey.So(url, convey.ShouldEqual, "http://svc:8080")
				convey.So(n, convey.ShouldEqual, 12)
				convey.So(seed, convey.ShouldEqual, uint64(9))
			})
		})

		convey.Convey("When the service is unreachable", func() {
			cmd.SetArgs([]string{"--url", "http://127.0.0.1:1", "--timeout", "1s", "-n", "1"})
			cmd.SetOut(io.Discard)
			cmd.SetErr(io.Discard)

			convey.Convey("Then Execute should fail", func() {
				convey.So(cmd.Execute(), convey.ShouldNotBeNil)
			})
		})
	})
}

