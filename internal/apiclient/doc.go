// Package apiclient is an HTTP client for the wizard API served by
// topology-server.
//
// It lets topology-cfg read a remote wizard session, drive it, and copy
// answers between the server and the local session registry.
//
// # Usage
//
//	c := apiclient.NewClient("http://192.168.1.20:8888/api")
//	st, err := c.GetState(ctx)
//	if err != nil {
//	    fmt.Println(apiclient.GetShortErrorMessage(err))
//	    fmt.Println(apiclient.GetTroubleshootingHint(err))
//	}
//
// # Retries
//
// Network failures and 5xx responses are retried with exponential backoff
// up to MaxRetries. Requests the server refused (4xx) are returned at once
// as ErrTypeRejected errors carrying the offending answer in Field.
//
// # Push
//
// Push snapshots the server's answers, sends the local ones, reads them
// back and restores the snapshot if anything did not stick:
//
//	result, err := c.Push(ctx, answers)
//	if apiclient.IsVerificationError(err) {
//	    for _, m := range result.Mismatches {
//	        fmt.Println(m)
//	    }
//	}
package apiclient
