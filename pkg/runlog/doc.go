// Package runlog collects the logs of a running browser test suite and
// hands them, one finished test at a time, to a console renderer, per-spec
// log files or a remote collector.
//
// Quick start:
//
//	c := runlog.New(runlog.NewHTTPOutput("http://127.0.0.1:7357"),
//	    runlog.WithCollectTypes("cy:command", "cons:error"))
//	defer c.Close()
//
//	c.TestStarted(0)
//	c.Log(0, runlog.Entry{Type: "cy:command", Message: "visit\t/", Severity: "success"})
//	c.TestFinished(0, test, runlog.SendOptions{})
//
// Each in-flight test owns one stack index, opened by TestStarted; entries
// logged under it are consumed when the test finishes. A Collector is safe
// for concurrent use.
package runlog
