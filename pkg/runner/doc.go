/*
Package runner connects a Narrator to a terminal.

It provides the pieces a host needs to try the engine without a screen reader around it:

  - Runner: a line-driven loop reading command names (or short keys) and executing them.
  - Console: a ports.SpeechEngine that writes utterances as lines, optionally paced so
    narration can be interrupted.
  - TextPresenter and JSONPresenter: ports.Presenter implementations for people and for
    programs.

# Usage

	speech := runner.NewConsole(os.Stdout, runner.WithPace(300*time.Millisecond))
	n := narrator.New(tree, speech, narrator.WithPresenter(runner.NewTextPresenter(os.Stdout, nil)))
	if _, err := n.Open(ctx, "cli", tree.Root()); err != nil {
		log.Fatal(err)
	}

	if err := runner.NewRunner(n, "cli").Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
