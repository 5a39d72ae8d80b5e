// Package planner builds sequential plans: given a goal, it shows the
// model a manual of the registered functions and parses the XML plan it
// answers with.
//
//	<plan>
//	    <function.FunPlugin.Joke input="$INPUT" setContextVariable="JOKE"/>
//	    <function.SendEmail input="$JOKE" appendToResult="RESULT__EMAIL"/>
//	</plan>
//
// A plan runs its steps in order. Each result becomes the next step's
// input, and is also stored under setContextVariable or appended to
// appendToResult when those are given.
package planner
