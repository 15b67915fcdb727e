// Package download provides the download orchestration logic for fetching
// daily strips.
//
// # Manager
//
// The Manager coordinates the entire run:
//
//  1. Resolve the start date and the latest published strip
//  2. Create the output folder and list dates already on disk
//  3. Ping the proxy when the batch is large enough
//  4. Load the URL cache
//  5. Download the missing strips concurrently
//  6. Normalize the saved URL cache
//
// # Basic Usage
//
//	manager := download.NewManager(settings, afero.NewOsFs(), func(event download.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	plan, err := manager.Prepare(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	summary, err := manager.Run(ctx)
//
// # Pipeline
//
// Each job runs through ResolveURL, RecordCache, FetchBytes, Decode and Save.
// Jobs whose URL came from the cache skip the page request. Network, HTTP
// status, extraction and decode failures are retried up to
// settings.Attempts times with an exponential cooldown; IO failures are not.
//
// # Concurrency
//
// The Scheduler starts at most settings.Concurrency pipelines at a time and
// streams outcomes in completion order. Each job carries a slot number
// (index modulo concurrency) used only to label progress lines.
//
// # Progress Tracking
//
// Progress is reported via a callback function that receives ProgressEvent:
//
//	type ProgressEvent struct {
//	    Message string
//	    Level   ProgressLevel // Info, Verbose, Warning, Error, Success
//	    Date    model.Date
//	    Slot    int
//	    Attempt int
//	    Step    string  // page, image, saved
//	    Percent float64 // share of jobs finished
//	}
//
// # Errors
//
// Failures are reported as *Error values with a Kind; use Classify and
// IsRetryable rather than matching messages.
package download
