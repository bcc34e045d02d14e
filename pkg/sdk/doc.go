// Package skillrank is a Go client for the skillrank search API.
//
// Searches stream three stages (instant, enhanced, complete) over Server-Sent Events.
// Each stage replaces the previous one; stop iterating as soon as a stage is good enough
// and the server stops working on the request.
//
//	client, _ := skillrank.New("http://localhost:8080")
//	for res, err := range client.Search(ctx, "senior pyhton developer", skillrank.InScope("acme")) {
//	    if err != nil {
//	        return err
//	    }
//	    render(res.Stage, res.Results)
//	}
//
// Accepted corrections can be fed back so the server learns them:
//
//	_, _ = client.RecordFeedback(ctx, "pyhton developer", "python developer")
package skillrank
