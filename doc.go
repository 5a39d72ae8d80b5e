// Package semkit is a small semantic kernel: it registers AI completion
// services and plugins of prompt-template and native functions, and
// invokes them.
//
// # Usage
//
//	settings, err := settings.OpenAIFromDotEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svc, err := openai.NewService(ai.NewConfig(settings.Options()...))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	kernel := semkit.NewKernel()
//	defer kernel.Close()
//	if err := kernel.AddChatService("chat-gpt", svc); err != nil {
//	    log.Fatal(err)
//	}
//
//	fun, err := kernel.ImportSemanticPluginFromDirectory("samples/plugins", "FunPlugin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	joke, err := kernel.Invoke(ctx, fun["Joke"], "time travel to dinosaur age")
package semkit
