// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package email

import (
	"fmt"
	"html"
	"time"

	"github.com/dustin/go-humanize"
)

// Message is a rendered email ready for a Sender.
type Message struct {
	Subject string
	HTML    string
}

func greeting(name string) string {
	if name == "" {
		return "Hey there"
	}
	return "Hey " + html.EscapeString(name)
}

// Confirmation renders the signup confirmation. Comedians get the
// lottery explanation; audience members just get the date.
func Confirmation(name, eventDate, cancelURL string, comedian bool) Message {
	var body string
	if comedian {
		body = fmt.Sprintf(`
<p>%s,</p>
<p>You're signed up to perform at the open mic on <strong>%s</strong>.</p>
<p>Check in when you arrive. The lineup is drawn by lottery: everyone
checked in gets a ticket, early birds and early arrivals get extra.</p>
<p>Can't make it? <a href="%s">Cancel your spot</a> so someone else can go up.</p>`,
			greeting(name), html.EscapeString(eventDate), cancelURL)
	} else {
		body = fmt.Sprintf(`
<p>%s,</p>
<p>You're on the list for the open mic on <strong>%s</strong>. See you there!</p>
<p>Plans changed? <a href="%s">Cancel your signup</a>.</p>`,
			greeting(name), html.EscapeString(eventDate), cancelURL)
	}

	return Message{
		Subject: "You're signed up for the open mic on " + eventDate,
		HTML:    body,
	}
}

// Waitlist renders the comedian-slots-full notice.
func Waitlist(name, eventDate string) Message {
	return Message{
		Subject: "You're on the waitlist for " + eventDate,
		HTML: fmt.Sprintf(`
<p>%s,</p>
<p>Comedian slots for <strong>%s</strong> are full, so you're on the
waitlist. We'll email you if a spot opens up.</p>`,
			greeting(name), html.EscapeString(eventDate)),
	}
}

// Reminder renders the day-of reminder. eventStart feeds a relative
// time ("Doors in 3 hours") so the copy works whenever the batch runs.
func Reminder(name, eventDate string, eventStart, now time.Time) Message {
	return Message{
		Subject: "Tonight: open mic on " + eventDate,
		HTML: fmt.Sprintf(`
<p>%s,</p>
<p>Reminder: the open mic is <strong>%s</strong> (%s).</p>
<p>Doors open before the show. Comedians: check in when you arrive or
you won't be in the lottery.</p>`,
			greeting(name), html.EscapeString(eventDate), humanize.RelTime(eventStart, now, "ago", "from now")),
	}
}

// LineupSpot tells a comedian their drawn position.
func LineupSpot(name string, position int) Message {
	return Message{
		Subject: fmt.Sprintf("You're up %s tonight", humanize.Ordinal(position)),
		HTML: fmt.Sprintf(`
<p>%s,</p>
<p>The lottery has spoken: you're performing <strong>%s</strong> tonight.</p>`,
			greeting(name), humanize.Ordinal(position)),
	}
}
