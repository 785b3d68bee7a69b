// Package mail delivers notification emails. Sending happens in the
// background so request handlers never wait on the provider.
package mail

import (
	"context"
	"fmt"
	"net/mail"
	"sync"
	"time"

	"github.com/suhendararyadi/lppm-iaipi-mhs/config"
	"github.com/suhendararyadi/lppm-iaipi-mhs/helper"
)

type Message struct {
	To      mail.Address
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New picks SendGrid when an API key is configured, otherwise the console.
func New() Mailer {
	from := mail.Address{Name: config.Env.AppName, Address: config.Env.MailFrom}
	if config.Env.SendgridKey != "" {
		return NewSendgridMailer(config.Env.SendgridKey, from, config.Env.AppName)
	}
	return NewConsoleMailer(from, config.Env.AppName)
}

const sendTimeout = 15 * time.Second

// Notifier queues messages on goroutines. Failures are logged and
// reported, never returned.
type Notifier struct {
	mailer Mailer
	wg     sync.WaitGroup
}

func NewNotifier(m Mailer) *Notifier {
	return &Notifier{mailer: m}
}

func (n *Notifier) Notify(msg Message) {
	if n == nil || n.mailer == nil || msg.To.Address == "" {
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := n.mailer.Send(ctx, msg); err != nil {
			helper.ReportError(fmt.Sprintf("kirim email ke %s", msg.To.Address), err)
		}
	}()
}

// Wait blocks until every queued message was handed to the mailer.
func (n *Notifier) Wait() {
	if n != nil {
		n.wg.Wait()
	}
}

// LaporanSubmitted tells the DPL a group sent a new report.
func LaporanSubmitted(dplEmail, dplName, ketuaName, judul string) Message {
	text := fmt.Sprintf("Halo %s,\n\nKelompok %s mengirim laporan baru \"%s\" dan menunggu persetujuan Anda.", dplName, ketuaName, judul)
	return Message{
		To:      mail.Address{Name: dplName, Address: dplEmail},
		Subject: "Laporan baru menunggu persetujuan",
		Text:    text,
	}
}

// LaporanReviewed tells the group leader the outcome of a review.
func LaporanReviewed(ketuaEmail, ketuaName, judul, status, catatan string) Message {
	text := fmt.Sprintf("Halo %s,\n\nLaporan \"%s\" telah ditinjau dengan status: %s.", ketuaName, judul, status)
	if catatan != "" {
		text += "\n\nCatatan DPL:\n" + catatan
	}
	return Message{
		To:      mail.Address{Name: ketuaName, Address: ketuaEmail},
		Subject: "Laporan Anda telah ditinjau: " + status,
		Text:    text,
	}
}
