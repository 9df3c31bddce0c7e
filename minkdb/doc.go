// Package minkdb provides a client for a MinkDB server over TCP.
//
// Example:
//
//	client, err := minkdb.Connect(minkdb.WithPort(6969))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Put("alice", "30")
//	val, found, err := client.Get("alice")
package minkdb
