/*
Copyright 2023 AmidaWare Inc.

Licensed under the Tactical RMM License Version 1.0 (the “License”).
You may only use the Licensed Software in accordance with the License.
A copy of the License is available at:

https://license.tacticalrmm.com

*/

package console

import (
	"fmt"
	"io"
	"runtime"
	goDebug "runtime/debug"

	"github.com/amidaware/schedctl/console/api"
	"github.com/amidaware/schedctl/console/config"
	"github.com/amidaware/schedctl/console/dashboard"
	"github.com/amidaware/schedctl/console/guard"
	"github.com/amidaware/schedctl/console/lint"
	"github.com/amidaware/schedctl/console/notify"
	"github.com/amidaware/schedctl/console/session"
	"github.com/amidaware/schedctl/console/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Options struct {
	// Ephemeral keeps the session in memory only
	Ephemeral bool
	// Toasts gets one line per notification, nil to keep them in memory only
	Toasts io.Writer
}

type Console struct {
	Config    *config.ConsoleConfig
	Viper     *viper.Viper
	Logger    *logrus.Logger
	Version   string
	Hostname  string
	Session   *session.Session
	Guard     *guard.Guard
	API       *api.Client
	Notifier  *notify.Notifier
	Dashboard *dashboard.Dashboard
	Poller    *dashboard.Poller
	Linter    *lint.Linter

	nats *notify.NatsSink
}

func New(cfg *config.ConsoleConfig, v *viper.Viper, logger *logrus.Logger, version string, opts Options) (*Console, error) {
	var store session.Store
	if opts.Ephemeral {
		store = session.NewMemoryStore()
	} else {
		bs, err := session.NewBoltStore(cfg.SessionPath())
		if err != nil {
			return nil, err
		}
		store = bs
	}

	sess, err := session.Open(store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	host := utils.Hostname()
	c := &Console{
		Config:   cfg,
		Viper:    v,
		Logger:   logger,
		Version:  version,
		Hostname: host,
		Session:  sess,
		Guard:    guard.New(sess),
		API:      api.New(cfg, sess, logger, version),
		Linter:   lint.New(logger),
	}

	sinks := make([]notify.Sink, 0, 2)
	if opts.Toasts != nil {
		sinks = append(sinks, notify.NewConsoleSink(opts.Toasts))
	}
	if cfg.Notify.NatsURL != "" {
		ns, err := notify.NewNatsSink(cfg.Notify.NatsURL, cfg.Notify.Subject, host)
		if err != nil {
			logger.Warnln("notifications will not be published:", err)
		} else {
			c.nats = ns
			sinks = append(sinks, ns)
		}
	}

	c.Notifier = notify.New(logger, sinks...)
	c.Dashboard = dashboard.New(c.API, c.Notifier, logger)
	c.Poller = dashboard.NewPoller(c.Dashboard, logger)

	logger.Debugf("%+v\n", cfg)
	return c, nil
}

func (c *Console) Close() {
	c.Poller.Stop()
	if c.nats != nil {
		c.nats.Close()
	}
	if err := c.Session.Close(); err != nil {
		c.Logger.Debugln(err)
	}
}

func ShowVersionInfo(w io.Writer, ver string) {
	fmt.Fprintln(w, "schedctl:", ver)
	fmt.Fprintln(w, "Arch:", runtime.GOARCH)
	bi, ok := goDebug.ReadBuildInfo()
	if ok {
		fmt.Fprintln(w, bi.String())
	}
}
