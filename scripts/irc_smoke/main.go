package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"time"

	"github.com/ergochat/irc-go/ircmsg"
)

func main() {
	if err := run(); err != nil {
		log.Printf("irc_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "localhost:6667", "IRC server address")
	password := flag.String("password", "", "connection password")
	nick := flag.String("nick", "tester", "nickname to register with")
	channel := flag.String("channel", "#general", "channel to join")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	conn, err := net.DialTimeout("tcp", *addr, *timeout)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(*timeout)); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}

	mustSend := func(line string) error {
		if _, err := conn.Write([]byte(line + "\r\n")); err != nil {
			return fmt.Errorf("send %q: %w", line, err)
		}
		return nil
	}

	for _, line := range []string{
		"PASS " + *password,
		"NICK " + *nick,
		"USER " + *nick + " 0 * :smoke test",
	} {
		if err := mustSend(line); err != nil {
			return err
		}
	}

	reader := bufio.NewReader(conn)
	for {
		raw, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		raw = strings.TrimRight(raw, "\r\n")
		msg, err := ircmsg.ParseLine(raw)
		if err != nil {
			return fmt.Errorf("malformed line %q: %w", raw, err)
		}
		fmt.Printf("Received: source=%s command=%s params=%q\n", msg.Source, msg.Command, msg.Params)

		switch msg.Command {
		case "PING":
			if err := mustSend("PONG :" + strings.Join(msg.Params, " ")); err != nil {
				return err
			}
		case "001":
			if err := mustSend("JOIN " + *channel); err != nil {
				return err
			}
		case "366":
			if err := mustSend("PRIVMSG " + *channel + " :" + *text); err != nil {
				return err
			}
			return mustSend("QUIT :smoke test done")
		case "ERROR":
			return fmt.Errorf("server closed link: %s", strings.Join(msg.Params, " "))
		default:
			if len(msg.Command) == 3 && msg.Command[0] >= '4' && msg.Command != "422" {
				return fmt.Errorf("server replied %s: %s", msg.Command, strings.Join(msg.Params, " "))
			}
		}
	}
}
