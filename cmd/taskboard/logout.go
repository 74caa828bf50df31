package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/naveenspark/taskboard/internal/config"
	"github.com/naveenspark/taskboard/internal/store"
)

func newLogoutCmd(opts *config.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogout(cmd, *opts, afero.NewOsFs())
		},
	}
}

// runLogout revokes the session with the provider when it can and always
// removes the local blobs.
func runLogout(cmd *cobra.Command, opts config.Options, fs afero.Fs) error {
	r, err := setup(opts, fs)
	if err != nil {
		return err
	}
	defer r.Close() //nolint:errcheck

	if err := r.provider.SignOut(cmd.Context()); err != nil {
		r.log.WithError(err).Warn("sign out")
	}
	r.session.Clear()
	r.boards.Clear()
	for _, ns := range []string{store.NamespaceUser, store.NamespaceBoards, store.NamespaceAuthSession} {
		if err := r.persist.Remove(ns); err != nil {
			return err
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
	return nil
}
