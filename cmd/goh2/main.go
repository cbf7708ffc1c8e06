package main

import (
	"crypto/sha256"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"

	"github.com/h2kit/h2codec/http2"
	gohttp2 "golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// referenceServer runs golang.org/x/net/http2's implementation side by side
// with ours on a different port, so the two can be diffed against the same
// handler while exercising this module's codec.
func referenceServer() {
	h2 := &gohttp2.Server{}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "Hello, %v, http: %v", r.URL.Path, r.TLS == nil)
	})

	server := &http.Server{
		Addr:    "0.0.0.0:1010",
		Handler: h2c.NewHandler(handler, h2),
	}

	go server.ListenAndServe()
}

func main() {
	listener, err := net.Listen("tcp4", ":8080")
	if err != nil {
		log.Fatal(err)
	}
	defer listener.Close()

	referenceServer()

	log.Printf("listening on 8080")

	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("accepted from %s", conn.RemoteAddr().String())
		c := &http2.Connection{
			Conn: conn,
			Handler: func(w http.ResponseWriter, r http2.Request) {
				fmt.Fprintf(w, "Hello, %v, method: %v\n", r.Authority, r.Method)

				if r.Method == "POST" {
					hash := sha256.New()
					if _, err := io.Copy(hash, r.Body); err != nil {
						log.Printf("error hashing body: %s", err)
						return
					}
					fmt.Fprintf(w, "sha256: %x\n", hash.Sum(nil))
				}
			},
		}
		go c.Handle()
	}
}
